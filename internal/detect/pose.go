package detect

import "github.com/mauroandres1246/align-press-2/pkg/geometry"

// decomposePose projects a template's corner quadrilateral (in template
// pixel space, corner order TL,TR,BR,BL) through h into ROI pixel space,
// then offsets by roiOffsetPx to land in rectified-frame pixel space. The
// detected center is the projected quadrilateral's centroid; the detected
// angle is the angle of the projected top edge TL->TR, counted
// counter-clockwise as seen in the image (whose y axis points down), the
// same sense as gocv.GetRotationMatrix2D angles used by the fallback.
func decomposePose(h [3][3]float64, corners []geometry.Point2D, roiOffsetPx geometry.Point2D) (centerPx geometry.Point2D, angleDeg float64) {
	projected := make([]geometry.Point2D, len(corners))
	for i, c := range corners {
		p := applyHomography(h, c)
		projected[i] = geometry.Point2D{X: p.X + roiOffsetPx.X, Y: p.Y + roiOffsetPx.Y}
	}
	centerPx = geometry.Centroid(projected)
	angleDeg = geometry.NormalizeAngleDeg(-geometry.AngleDeg(projected[0], projected[1]))
	return centerPx, angleDeg
}
