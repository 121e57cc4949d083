// Package template loads each configured logo's reference image once at
// engine construction, derives its matching mask, and extracts the keypoint
// descriptors the per-frame engine matches against. It is the generalization
// of a library-of-logos cache from packed-bitmap correlation to gocv feature
// descriptors.
package template

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
	"github.com/mauroandres1246/align-press-2/internal/imageutil"
	"github.com/mauroandres1246/align-press-2/internal/metrics"
	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

// minKeypoints is the smallest number of retained keypoints a template may
// have before the engine refuses to use it; fewer than this and RANSAC has
// no realistic chance of a stable homography.
const minKeypoints = 8

// Template is one logo's cached reference data: its grayscale image, an
// optional matching mask, and its extracted keypoints/descriptors.
type Template struct {
	Name        string
	Gray        gocv.Mat
	Mask        gocv.Mat // empty Mat if no mask
	Keypoints   []gocv.KeyPoint
	Descriptors gocv.Mat
	Width       int
	Height      int
}

// Corners returns the template's canonical corner quadrilateral in its own
// pixel space, in the order the per-frame engine projects it through a
// recovered homography: top-left, top-right, bottom-right, bottom-left.
func (t *Template) Corners() []geometry.Point2D {
	w, h := float64(t.Width), float64(t.Height)
	return []geometry.Point2D{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
	}
}

// Close releases the gocv resources owned by the template.
func (t *Template) Close() {
	t.Gray.Close()
	if !t.Mask.Empty() {
		t.Mask.Close()
	}
	t.Descriptors.Close()
}

// Store owns every configured logo's Template for the lifetime of an
// engine. Templates are read-only after construction and safe to share
// across concurrent Detect calls against distinct engine instances.
type Store struct {
	byIndex []*Template
	byName  map[string]*Template
	norm    gocv.NormType
}

// NewStore loads and extracts features for every logo in cfg.Logos, in
// order. It returns a *config.ConfigError on any failure.
func NewStore(cfg *config.Config) (*Store, error) {
	ext, norm, err := newExtractor(cfg.Feature)
	if err != nil {
		return nil, &config.ConfigError{Kind: config.InvalidConfiguration, Field: "feature_params.type", Err: err}
	}
	defer ext.Close()

	s := &Store{
		byName: make(map[string]*Template, len(cfg.Logos)),
		norm:   norm,
	}

	for _, logo := range cfg.Logos {
		tpl, err := loadTemplate(ext, logo)
		if err != nil {
			return nil, err
		}
		s.byIndex = append(s.byIndex, tpl)
		s.byName[logo.Name] = tpl
		metrics.TemplateKeypoints.WithLabelValues(logo.Name).Set(float64(len(tpl.Keypoints)))
	}
	return s, nil
}

func loadTemplate(ext Extractor, logo config.LogoSpec) (*Template, error) {
	raw := gocv.IMRead(logo.TemplatePath, gocv.IMReadUnchanged)
	if raw.Empty() {
		return nil, &config.ConfigError{
			Kind: config.TemplateUnavailable, Logo: logo.Name, Field: "template_path",
			Err: fmt.Errorf("failed to decode image at %s", logo.TemplatePath),
		}
	}
	defer raw.Close()

	gray, mask, err := prepareTemplateImage(raw, logo)
	if err != nil {
		return nil, err
	}

	keypoints, descriptors := ext.DetectAndCompute(gray, mask)
	if len(keypoints) < minKeypoints {
		descriptors.Close()
		gray.Close()
		if !mask.Empty() {
			mask.Close()
		}
		return nil, &config.ConfigError{
			Kind: config.TemplateTooWeak, Logo: logo.Name, Field: "template_path",
			Err: fmt.Errorf("only %d keypoints extracted, need at least %d", len(keypoints), minKeypoints),
		}
	}

	return &Template{
		Name:        logo.Name,
		Gray:        gray,
		Mask:        mask,
		Keypoints:   keypoints,
		Descriptors: descriptors,
		Width:       gray.Cols(),
		Height:      gray.Rows(),
	}, nil
}

// prepareTemplateImage converts raw into a grayscale Mat and, when the logo
// requests transparency handling, a binary mask derived from raw's alpha
// channel per the configured method; otherwise the mask is an empty Mat.
// raw may be 1, 3, or 4 channels.
func prepareTemplateImage(raw gocv.Mat, logo config.LogoSpec) (gray gocv.Mat, mask gocv.Mat, err error) {
	switch raw.Channels() {
	case 1:
		gray = raw.Clone()
	case 3:
		gray = gocv.NewMat()
		gocv.CvtColor(raw, &gray, gocv.ColorBGRToGray)
	case 4:
		channels := gocv.Split(raw)
		defer func() {
			for _, c := range channels {
				c.Close()
			}
		}()
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.Merge(channels[:3], &bgr)
		gray = gocv.NewMat()
		gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

		if logo.HasTransparency {
			mask, err = imageutil.DeriveMask(channels[3], logo.TransparencyMethod)
			if err != nil {
				gray.Close()
				return gocv.Mat{}, gocv.Mat{}, &config.ConfigError{
					Kind: config.InvalidConfiguration, Logo: logo.Name, Field: "transparency_method", Err: err,
				}
			}
			return gray, mask, nil
		}
	default:
		return gocv.Mat{}, gocv.Mat{}, &config.ConfigError{
			Kind: config.TemplateUnavailable, Logo: logo.Name, Field: "template_path",
			Err: fmt.Errorf("unsupported channel count %d", raw.Channels()),
		}
	}
	return gray, gocv.NewMat(), nil
}

// Get returns the template for a logo by name.
func (s *Store) Get(name string) (*Template, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// NormType reports the descriptor distance metric selected by the
// configured feature type (Hamming for ORB/AKAZE, L2 for SIFT).
func (s *Store) NormType() gocv.NormType {
	return s.norm
}

// Close releases every template's gocv resources. Call once when the
// engine that owns the Store is no longer needed.
func (s *Store) Close() {
	for _, t := range s.byIndex {
		t.Close()
	}
}
