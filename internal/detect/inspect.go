package detect

import (
	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

// ExpectedPositionsPx returns each configured logo's expected center, in
// rectified-frame pixel space, keyed by logo name. Used by overlay/UI
// callers to draw the expected-pose marker without running Detect.
func (e *Engine) ExpectedPositionsPx() map[string]geometry.Point2D {
	out := make(map[string]geometry.Point2D, len(e.cfg.Logos))
	for _, logo := range e.cfg.Logos {
		out[logo.Name] = geometry.MMToPx(logo.PositionMM, e.cfg.Plane.MMPerPx)
	}
	return out
}

// ROIBound is an axis-aligned search window in rectified-frame pixel space.
type ROIBound struct {
	X1, Y1, X2, Y2 int
}

// ROIBoundsPx returns the named logo's search window, in rectified-frame
// pixel space, centred on its expected position. The bounds are not clipped
// to the frame and are computed from the unrounded window size, so they can
// differ by a pixel from the region Detect extracts.
func (e *Engine) ROIBoundsPx(name string) (ROIBound, bool) {
	for _, logo := range e.cfg.Logos {
		if logo.Name != name {
			continue
		}
		mmPerPx := e.cfg.Plane.MMPerPx
		centerPx := geometry.MMToPx(logo.PositionMM, mmPerPx)
		windowMM := geometry.Point2D{
			X: logo.ROI.WidthMM * logo.ROI.MarginFactor,
			Y: logo.ROI.HeightMM * logo.ROI.MarginFactor,
		}
		windowPx := geometry.MMToPx(windowMM, mmPerPx)
		return ROIBound{
			X1: int(centerPx.X - windowPx.X/2),
			Y1: int(centerPx.Y - windowPx.Y/2),
			X2: int(centerPx.X + windowPx.X/2),
			Y2: int(centerPx.Y + windowPx.Y/2),
		}, true
	}
	return ROIBound{}, false
}
