package config

import (
	"fmt"
	"math"
	"os"
)

// Validate checks every field of Config for internal consistency, returning
// a *ConfigError naming the first offending field it finds. It does not
// extract features or otherwise touch gocv; that happens in internal/template
// at engine construction, once this pass has succeeded.
func (c *Config) Validate() error {
	if err := c.Plane.validate(); err != nil {
		return err
	}
	if len(c.Logos) == 0 {
		return invalidField("logos", fmt.Errorf("at least one logo must be configured"))
	}
	seen := make(map[string]bool, len(c.Logos))
	for i := range c.Logos {
		logo := &c.Logos[i]
		if logo.Name == "" {
			return invalidField("logos[].name", fmt.Errorf("logo at index %d has an empty name", i))
		}
		if seen[logo.Name] {
			return invalidLogoField(logo.Name, "name", fmt.Errorf("duplicate logo name"))
		}
		seen[logo.Name] = true
		if err := logo.validate(c.Plane); err != nil {
			return err
		}
	}
	if err := c.Threshold.validate(); err != nil {
		return err
	}
	if err := c.Feature.validate(); err != nil {
		return err
	}
	if err := c.Matching.validate(); err != nil {
		return err
	}
	if err := c.Fallback.validate(); err != nil {
		return err
	}
	return nil
}

func (p PlaneConfig) validate() error {
	if p.WidthMM <= 0 {
		return invalidField("plane.width_mm", fmt.Errorf("must be positive, got %v", p.WidthMM))
	}
	if p.HeightMM <= 0 {
		return invalidField("plane.height_mm", fmt.Errorf("must be positive, got %v", p.HeightMM))
	}
	if p.MMPerPx <= 0 || p.MMPerPx > 50 {
		return invalidField("plane.mm_per_px", fmt.Errorf(
			"must be in (0, 50] millimetres per pixel, got %v (check for an inverted px_per_mm value)", p.MMPerPx))
	}
	if p.Homography != nil {
		h := *p.Homography
		for _, v := range h {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return invalidField("plane.homography", fmt.Errorf("contains a non-finite value"))
			}
		}
		det := h[0]*(h[4]*h[8]-h[5]*h[7]) -
			h[1]*(h[3]*h[8]-h[5]*h[6]) +
			h[2]*(h[3]*h[7]-h[4]*h[6])
		if math.Abs(det) < 1e-12 {
			return invalidField("plane.homography", fmt.Errorf("matrix is singular"))
		}
	}
	return nil
}

func (l LogoSpec) validate(plane PlaneConfig) error {
	if _, err := os.Stat(l.TemplatePath); err != nil {
		return &ConfigError{Kind: TemplateUnavailable, Logo: l.Name, Field: "template_path", Err: err}
	}
	if l.PositionMM.X < 0 || l.PositionMM.X > plane.WidthMM ||
		l.PositionMM.Y < 0 || l.PositionMM.Y > plane.HeightMM {
		return invalidLogoField(l.Name, "position_mm", fmt.Errorf(
			"expected position %v lies outside the plate extent %vx%v mm", l.PositionMM, plane.WidthMM, plane.HeightMM))
	}
	if l.AngleDeg <= -180 || l.AngleDeg > 180 {
		return invalidLogoField(l.Name, "angle_deg", fmt.Errorf("must be in (-180, 180], got %v", l.AngleDeg))
	}
	if l.ROI.WidthMM <= 0 || l.ROI.HeightMM <= 0 {
		return invalidLogoField(l.Name, "roi", fmt.Errorf("roi dimensions must be positive"))
	}
	if l.ROI.MarginFactor < 1.0 {
		return invalidLogoField(l.Name, "roi.margin_factor", fmt.Errorf("must be >= 1.0, got %v", l.ROI.MarginFactor))
	}
	if l.HasTransparency {
		switch l.TransparencyMethod {
		case TransparencyThreshold, TransparencyContour, TransparencyGrabcut:
		default:
			return invalidLogoField(l.Name, "transparency_method", fmt.Errorf("unknown variant %q", l.TransparencyMethod))
		}
	}
	return nil
}

func (t Thresholds) validate() error {
	if t.MaxPositionErrorMM <= 0 {
		return invalidField("thresholds.max_position_error_mm", fmt.Errorf("must be positive"))
	}
	if t.MaxAngleErrorDeg <= 0 {
		return invalidField("thresholds.max_angle_error_deg", fmt.Errorf("must be positive"))
	}
	if t.MinInliers <= 0 {
		return invalidField("thresholds.min_inliers", fmt.Errorf("must be positive"))
	}
	if t.MaxReprojErrorPx <= 0 {
		return invalidField("thresholds.max_reproj_error_px", fmt.Errorf("must be positive"))
	}
	return nil
}

func (f FeatureParams) validate() error {
	switch f.Type {
	case FeatureORB, FeatureAKAZE, FeatureSIFT:
	default:
		return invalidField("feature_params.type", fmt.Errorf("unknown variant %q", f.Type))
	}
	if f.NFeatures <= 0 {
		return invalidField("feature_params.nfeatures", fmt.Errorf("must be positive"))
	}
	if f.ScaleFactor <= 1.0 {
		return invalidField("feature_params.scale_factor", fmt.Errorf("must be > 1.0, got %v", f.ScaleFactor))
	}
	if f.NLevels <= 0 {
		return invalidField("feature_params.nlevels", fmt.Errorf("must be positive"))
	}
	return nil
}

func (m MatchingParams) validate() error {
	switch m.Algorithm {
	case MatchBruteForce, MatchFlann:
	default:
		return invalidField("matching_params.algorithm", fmt.Errorf("unknown variant %q", m.Algorithm))
	}
	if m.RatioTestThreshold <= 0 || m.RatioTestThreshold >= 1 {
		return invalidField("matching_params.ratio_test_threshold", fmt.Errorf("must be in (0, 1), got %v", m.RatioTestThreshold))
	}
	return nil
}

func (f FallbackParams) validate() error {
	if !f.Enabled {
		return nil
	}
	if len(f.Scales) == 0 {
		return invalidField("fallback.scales", fmt.Errorf("must be non-empty when fallback is enabled"))
	}
	for _, s := range f.Scales {
		if s <= 0 {
			return invalidField("fallback.scales", fmt.Errorf("scale values must be positive, got %v", s))
		}
	}
	if len(f.AnglesDeg) == 0 {
		return invalidField("fallback.angles_deg", fmt.Errorf("must be non-empty when fallback is enabled"))
	}
	if f.MatchThreshold <= 0 || f.MatchThreshold > 1 {
		return invalidField("fallback.match_threshold", fmt.Errorf("must be in (0, 1], got %v", f.MatchThreshold))
	}
	return nil
}
