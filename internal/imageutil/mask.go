package imageutil

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
)

// DeriveMask produces a single-channel binary mask (0 or 255) from a
// template's alpha channel, per the configured transparency method. alpha
// must be a single-channel 8-bit Mat (the 4th channel of the decoded
// template image).
func DeriveMask(alpha gocv.Mat, method config.TransparencyMethod) (gocv.Mat, error) {
	switch method {
	case config.TransparencyThreshold:
		return thresholdMask(alpha), nil
	case config.TransparencyContour:
		return contourMask(alpha), nil
	case config.TransparencyGrabcut:
		return grabcutMask(alpha), nil
	default:
		return gocv.Mat{}, fmt.Errorf("imageutil: unknown transparency method %q", method)
	}
}

// thresholdMask binarizes the alpha plane at its midpoint.
func thresholdMask(alpha gocv.Mat) gocv.Mat {
	mask := gocv.NewMat()
	gocv.Threshold(alpha, &mask, 127, 255, gocv.ThresholdBinary)
	return mask
}

// contourMask finds the external contours of the alpha plane's binarization
// and fills them solid, closing small holes left by anti-aliased edges.
func contourMask(alpha gocv.Mat) gocv.Mat {
	bin := thresholdMask(alpha)
	defer bin.Close()

	mask := gocv.NewMatWithSize(alpha.Rows(), alpha.Cols(), gocv.MatTypeCV8U)
	contours := gocv.FindContours(bin, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	gocv.FillPoly(&mask, contours, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return mask
}

// grabcutMask seeds iterative foreground segmentation with the alpha
// plane's bounding box and returns the converged foreground mask.
func grabcutMask(alpha gocv.Mat) gocv.Mat {
	bin := thresholdMask(alpha)
	defer bin.Close()

	rect := nonZeroBounds(bin)
	if rect.Empty() {
		rect = image.Rect(0, 0, alpha.Cols(), alpha.Rows())
	}

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(alpha, &bgr, gocv.ColorGrayToBGR)

	gcMask := gocv.NewMatWithSize(alpha.Rows(), alpha.Cols(), gocv.MatTypeCV8U)
	defer gcMask.Close()
	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	gocv.GrabCut(bgr, &gcMask, rect, &bgdModel, &fgdModel, 5, gocv.GCInitWithRect)

	// GrabCut labels pixels GC_BGD=0, GC_FGD=1, GC_PR_BGD=2, GC_PR_FGD=3.
	// Foreground (definite or probable) is the odd labels; union the two.
	fgd := gocv.NewMat()
	defer fgd.Close()
	gocv.InRangeWithScalar(gcMask, gocv.NewScalar(1, 0, 0, 0), gocv.NewScalar(1, 0, 0, 0), &fgd)
	prFgd := gocv.NewMat()
	defer prFgd.Close()
	gocv.InRangeWithScalar(gcMask, gocv.NewScalar(3, 0, 0, 0), gocv.NewScalar(3, 0, 0, 0), &prFgd)

	out := gocv.NewMat()
	gocv.BitwiseOr(fgd, prFgd, &out)
	return out
}

// nonZeroBounds returns the bounding rectangle of the non-zero pixels in a
// single-channel 8-bit mask, mirroring the contour-walk bounding approach
// used elsewhere for locating a region of interest inside a binary image.
func nonZeroBounds(mask gocv.Mat) image.Rectangle {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var bounds image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if bounds.Empty() {
			bounds = r
		} else {
			bounds = bounds.Union(r)
		}
	}
	return bounds
}
