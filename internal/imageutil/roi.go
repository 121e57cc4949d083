// Package imageutil provides the gocv-based image operations shared by the
// detection engine: ROI extraction, perspective rectification, and mask
// derivation from a template's alpha channel.
package imageutil

import (
	"image"

	"gocv.io/x/gocv"
)

// ROI is a sub-image extracted from a parent frame, together with the pixel
// offset at which it was cut. Adding Offset to a point measured in ROI space
// recovers the corresponding point in the parent frame.
type ROI struct {
	Mat    gocv.Mat
	Offset image.Point
}

// Extract clips a centerPx/sizePx window out of frame, clamping to the
// frame's bounds. ok is false if the requested window does not overlap the
// frame at all, in which case Mat is not allocated and must not be closed.
func Extract(frame gocv.Mat, centerPx image.Point, sizePx image.Point) (roi ROI, ok bool) {
	half := image.Pt(sizePx.X/2, sizePx.Y/2)
	rect := image.Rectangle{
		Min: centerPx.Sub(half),
		Max: centerPx.Add(half),
	}
	frameBounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	clipped := rect.Intersect(frameBounds)
	if clipped.Empty() {
		return ROI{}, false
	}
	region := frame.Region(clipped)
	cloned := region.Clone()
	region.Close()
	return ROI{Mat: cloned, Offset: clipped.Min}, true
}
