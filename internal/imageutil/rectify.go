package imageutil

import (
	"image"

	"gocv.io/x/gocv"
)

// Rectify warps frame into plate coordinates using homography (row-major
// 3x3, maps raw frame pixels to plate pixels). outSize is the target plate
// extent in pixels (width_mm/mm_per_px by height_mm/mm_per_px). If
// homography is nil, frame is cloned through unchanged (identity).
func Rectify(frame gocv.Mat, homography *[9]float64, outSize image.Point) gocv.Mat {
	if homography == nil {
		return frame.Clone()
	}
	h := homographyMat(*homography)
	defer h.Close()

	dst := gocv.NewMat()
	gocv.WarpPerspectiveWithParams(frame, &dst, h, outSize, gocv.InterpolationLinear,
		gocv.BorderConstant, gocv.NewScalar(0, 0, 0, 0))
	return dst
}

// homographyMat builds a 3x3 CV_64F gocv.Mat from a row-major array.
func homographyMat(h [9]float64) gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, h[r*3+c])
		}
	}
	return m
}
