package detect

import (
	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
	"github.com/mauroandres1246/align-press-2/internal/template"
	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

// correspondence is one surviving template<->ROI keypoint match, with both
// endpoints already resolved to pixel coordinates.
type correspondence struct {
	templatePt geometry.Point2D
	roiPt      geometry.Point2D
}

// matchDescriptors matches tpl's descriptors against the ROI's descriptors
// per MatchingParams, returning surviving correspondences in template pixel
// space and ROI pixel space. When params.CrossCheck is set, a cross-checking
// brute-force matcher is used instead of the ratio test: no ratio test is
// applied and params.Algorithm is ignored.
func matchDescriptors(norm gocv.NormType, params config.MatchingParams, tpl *template.Template,
	roiKeypoints []gocv.KeyPoint, roiDescriptors gocv.Mat) []correspondence {

	if tpl.Descriptors.Empty() || roiDescriptors.Empty() {
		return nil
	}

	var out []correspondence

	if params.CrossCheck {
		bf := gocv.NewBFMatcherWithParams(norm, true)
		defer bf.Close()
		matches := bf.Match(tpl.Descriptors, roiDescriptors)
		for _, m := range matches {
			out = append(out, correspondence{
				templatePt: keypointPt(tpl.Keypoints[m.QueryIdx]),
				roiPt:      keypointPt(roiKeypoints[m.TrainIdx]),
			})
		}
		return out
	}

	var knn [][]gocv.DMatch
	switch params.Algorithm {
	case config.MatchFlann:
		fl := gocv.NewFlannBasedMatcher()
		defer fl.Close()
		knn = fl.KnnMatch(tpl.Descriptors, roiDescriptors, 2)
	default:
		bf := gocv.NewBFMatcherWithParams(norm, false)
		defer bf.Close()
		knn = bf.KnnMatch(tpl.Descriptors, roiDescriptors, 2)
	}

	for _, pair := range knn {
		if len(pair) < 2 {
			continue
		}
		best, second := pair[0], pair[1]
		if second.Distance == 0 {
			continue
		}
		if float64(best.Distance) >= params.RatioTestThreshold*float64(second.Distance) {
			continue
		}
		out = append(out, correspondence{
			templatePt: keypointPt(tpl.Keypoints[best.QueryIdx]),
			roiPt:      keypointPt(roiKeypoints[best.TrainIdx]),
		})
	}
	return out
}

func keypointPt(kp gocv.KeyPoint) geometry.Point2D {
	return geometry.Point2D{X: float64(kp.X), Y: float64(kp.Y)}
}
