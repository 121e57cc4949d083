// Package fallback implements the secondary template-matching detector: a
// grid search over (scale, angle) hypotheses scored by normalized
// cross-correlation, used when the primary feature+RANSAC path fails. It
// generalizes the reference codebase's grid-search-over-hypotheses
// structure from packed-bitmap Jaccard matching to gocv.MatchTemplate.
package fallback

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
)

// Hit is a successful fallback detection: the peak correlation location in
// ROI pixel space (top-left of the matched window), the hypothesis scale
// and angle, and the correlation score used as confidence.
type Hit struct {
	PeakLoc  image.Point
	TplSize  image.Point
	Scale    float64
	AngleDeg float64
	Score    float64
}

// Detect searches params.Scales x params.AnglesDeg for the best-correlating
// rendering of tplGray (optionally restricted by tplMask) inside roi. ok is
// false if no hypothesis's peak exceeds params.MatchThreshold.
func Detect(tplGray, tplMask, roi gocv.Mat, params config.FallbackParams) (hit Hit, ok bool) {
	best := Hit{Score: -1}
	hasBest := false

	center := image.Pt(tplGray.Cols()/2, tplGray.Rows()/2)

	for _, scale := range params.Scales {
		for _, angle := range params.AnglesDeg {
			renderedTpl, renderedMask, size := renderHypothesis(tplGray, tplMask, center, scale, angle)

			if size.X > roi.Cols() || size.Y > roi.Rows() || size.X == 0 || size.Y == 0 {
				renderedTpl.Close()
				renderedMask.Close()
				continue
			}

			result := gocv.NewMat()
			if renderedMask.Empty() {
				noMask := gocv.NewMat()
				gocv.MatchTemplate(roi, renderedTpl, &result, gocv.TmCcoeffNormed, noMask)
				noMask.Close()
			} else {
				gocv.MatchTemplate(roi, renderedTpl, &result, gocv.TmCcorrNormed, renderedMask)
			}
			_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
			result.Close()
			renderedTpl.Close()
			renderedMask.Close()

			if float64(maxVal) > best.Score {
				best = Hit{PeakLoc: maxLoc, TplSize: size, Scale: scale, AngleDeg: angle, Score: float64(maxVal)}
				hasBest = true
			}
		}
	}

	if !hasBest || best.Score <= params.MatchThreshold {
		return Hit{}, false
	}
	return best, true
}

// renderHypothesis rotates and scales the template (and its mask, if any)
// around its own center, returning the rendered size. The returned mask is
// an empty Mat when tplMask is empty; the caller closes both Mats.
func renderHypothesis(tplGray, tplMask gocv.Mat, center image.Point, scale, angleDeg float64) (gocv.Mat, gocv.Mat, image.Point) {
	rot := gocv.GetRotationMatrix2D(center, angleDeg, scale)
	defer rot.Close()

	size := image.Pt(tplGray.Cols(), tplGray.Rows())

	out := gocv.NewMat()
	gocv.WarpAffineWithParams(tplGray, &out, rot, size, gocv.InterpolationLinear, gocv.BorderConstant, gocv.NewScalar(0, 0, 0, 0))

	outMask := gocv.NewMat()
	if !tplMask.Empty() {
		gocv.WarpAffineWithParams(tplMask, &outMask, rot, size, gocv.InterpolationNearestNeighbor, gocv.BorderConstant, gocv.NewScalar(0, 0, 0, 0))
	}

	return out, outMask, size
}
