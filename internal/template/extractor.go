package template

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
)

// Extractor is the common surface of gocv's keypoint/descriptor detectors
// (ORB, AKAZE, SIFT) that the template store and the per-frame engine drive.
// The engine uses the same Extractor type to detect keypoints in each
// search ROI, so template and frame descriptors are always comparable.
type Extractor interface {
	DetectAndCompute(src gocv.Mat, mask gocv.Mat) ([]gocv.KeyPoint, gocv.Mat)
	Close() error
}

// NewExtractor builds the gocv detector selected by FeatureParams.Type and
// reports the NormType its descriptors should be matched with.
func NewExtractor(p config.FeatureParams) (Extractor, gocv.NormType, error) {
	return newExtractor(p)
}

// newExtractor is the unexported implementation shared by NewExtractor and
// the template store's own construction path.
func newExtractor(p config.FeatureParams) (Extractor, gocv.NormType, error) {
	switch p.Type {
	case config.FeatureORB:
		orb := gocv.NewORBWithParams(p.NFeatures, float32(p.ScaleFactor), p.NLevels,
			p.EdgeThreshold, 0, 2, gocv.ORBScoreHarris, p.PatchSize, 20)
		return orb, gocv.NormHamming, nil
	case config.FeatureAKAZE:
		akaze := gocv.NewAKAZE()
		return akaze, gocv.NormHamming, nil
	case config.FeatureSIFT:
		sift := gocv.NewSIFT()
		return sift, gocv.NormL2, nil
	default:
		return nil, 0, fmt.Errorf("template: unknown feature type %q", p.Type)
	}
}
