package detect

import (
	"encoding/binary"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

// ransacMaxIters and ransacConfidence bound gocv's internal RANSAC search;
// OpenCV's homography RANSAC is deterministic for identical point
// correspondences in identical order, which is what gives Detect its
// bitwise-reproducibility guarantee.
const (
	ransacMaxIters    = 2000
	ransacConfidence  = 0.99
)

// homographyEstimate is the result of a RANSAC homography fit: the 3x3
// matrix itself, the inlier count, and the mean reprojection error over
// the inliers.
type homographyEstimate struct {
	h             [3][3]float64
	inliers       int
	reprojErrorPx float64
	ok            bool
}

// estimateHomography fits src -> dst via RANSAC, using reprojThresholdPx as
// the pixel tolerance for inlier membership.
func estimateHomography(src, dst []geometry.Point2D, reprojThresholdPx float64) homographyEstimate {
	if len(src) < 4 || len(src) != len(dst) {
		return homographyEstimate{}
	}

	srcMat := pointsToMat(src)
	defer srcMat.Close()
	dstMat := pointsToMat(dst)
	defer dstMat.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	hMat := gocv.FindHomography(srcMat, dstMat, gocv.HomographyMethodRANSAC, reprojThresholdPx, &mask, ransacMaxIters, ransacConfidence)
	defer hMat.Close()
	if hMat.Empty() {
		return homographyEstimate{}
	}

	var h [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r][c] = hMat.GetDoubleAt(r, c)
		}
	}

	inlierMask := mask.ToBytes()
	inliers := 0
	var sumErr float64
	for i, b := range inlierMask {
		if b == 0 {
			continue
		}
		inliers++
		proj := applyHomography(h, src[i])
		sumErr += proj.Distance(dst[i])
	}
	if inliers == 0 {
		return homographyEstimate{}
	}

	return homographyEstimate{
		h:             h,
		inliers:       inliers,
		reprojErrorPx: sumErr / float64(inliers),
		ok:            true,
	}
}

// isWellConditioned rejects degenerate homographies: a near-singular or
// sign-flipping top-left 2x2 block indicates a fold or collapse rather
// than a plausible rigid-ish logo pose. The condition number (ratio of the
// largest to smallest singular value) is computed via gonum's SVD rather
// than a hand-rolled eigenvalue solve.
func isWellConditioned(h [3][3]float64) bool {
	det := h[0][0]*h[1][1] - h[0][1]*h[1][0]
	if det < 1e-9 {
		return false
	}

	a := mat.NewDense(2, 2, []float64{h[0][0], h[0][1], h[1][0], h[1][1]})
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return false
	}
	values := svd.Values(nil)
	if len(values) < 2 || values[1] <= 1e-12 {
		return false
	}
	condition := values[0] / values[1]
	return condition < 20
}

// applyHomography projects a point through a 3x3 homography in homogeneous
// coordinates.
func applyHomography(h [3][3]float64, p geometry.Point2D) geometry.Point2D {
	x := h[0][0]*p.X + h[0][1]*p.Y + h[0][2]
	y := h[1][0]*p.X + h[1][1]*p.Y + h[1][2]
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if w == 0 {
		return geometry.Point2D{}
	}
	return geometry.Point2D{X: x / w, Y: y / w}
}

// pointsToMat packs points into a single-column CV_32FC2 Mat, the layout
// gocv.FindHomography expects for its point-set arguments.
func pointsToMat(pts []geometry.Point2D) gocv.Mat {
	buf := make([]byte, len(pts)*8)
	for i, p := range pts {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(float32(p.X)))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(float32(p.Y)))
	}
	m, _ := gocv.NewMatFromBytes(len(pts), 1, gocv.MatTypeCV32FC2, buf)
	return m
}
