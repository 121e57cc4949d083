// Package overlay paints the expected and detected logo markers over the
// plate image for a human operator, adapted from the reference codebase's
// raster-overlay drawing approach, trimmed to a read-only status display
// (no pan/zoom/edit tools).
package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/mauroandres1246/align-press-2/internal/detect"
	"github.com/mauroandres1246/align-press-2/pkg/colorutil"
	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

// Marker is one logo's renderable status: its expected position, its
// detected position (if found), and the status color to draw it in.
type Marker struct {
	Name       string
	ExpectedPx image.Point
	DetectedPx *image.Point
	Status     color.RGBA
}

const (
	crosshairArm   = 14
	crosshairThick = 2
	badgeRadius    = 6
)

// StatusFor derives a marker's status color from a LogoResult, per the
// operator status rule: found AND within both tolerances is OK; found but
// out of tolerance is ADJUST; not found is NOT FOUND.
func StatusFor(r detect.LogoResult) color.RGBA {
	if !r.Found {
		return colorutil.StatusNotFound
	}
	if r.MeetsPositionTolerance && r.MeetsAngleTolerance {
		return colorutil.StatusOK
	}
	return colorutil.StatusAdjust
}

// BuildMarkers converts a Detect call's results, plus the engine's
// expected-position inspection data, into drawable Markers in the same
// order as results. mmPerPx converts a found result's PositionMM back into
// the rectified frame's pixel space.
func BuildMarkers(results []detect.LogoResult, expectedPx map[string]image.Point, mmPerPx float64) []Marker {
	markers := make([]Marker, 0, len(results))
	for _, r := range results {
		m := Marker{
			Name:       r.Name,
			ExpectedPx: expectedPx[r.Name],
			Status:     StatusFor(r),
		}
		if r.Found && r.PositionMM != nil {
			px := geometry.MMToPx(*r.PositionMM, mmPerPx)
			p := image.Pt(int(px.X), int(px.Y))
			m.DetectedPx = &p
		}
		markers = append(markers, m)
	}
	return markers
}

// Render composites plate (the rectified frame, as a standard Go image)
// with one crosshair-and-badge per marker. The plate is copied with
// draw.Src and marker pixels are written directly over it; marker colors
// are not alpha-blended.
func Render(plate image.Image, markers []Marker) *image.RGBA {
	bounds := plate.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, plate, bounds.Min, draw.Src)

	for _, m := range markers {
		drawCrosshair(out, m.ExpectedPx, colorutil.ExpectedMarker)
		if m.DetectedPx != nil {
			drawCrosshair(out, *m.DetectedPx, m.Status)
		}
		drawBadge(out, m.ExpectedPx, m.Status)
	}
	return out
}

func drawCrosshair(img *image.RGBA, center image.Point, c color.RGBA) {
	for dx := -crosshairArm; dx <= crosshairArm; dx++ {
		setThick(img, center.X+dx, center.Y, c)
	}
	for dy := -crosshairArm; dy <= crosshairArm; dy++ {
		setThick(img, center.X, center.Y+dy, c)
	}
}

func setThick(img *image.RGBA, x, y int, c color.RGBA) {
	bounds := img.Bounds()
	for ox := 0; ox < crosshairThick; ox++ {
		for oy := 0; oy < crosshairThick; oy++ {
			p := image.Pt(x+ox, y+oy)
			if p.In(bounds) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}

// drawBadge paints a small filled status circle offset from the marker so
// it doesn't obscure the crosshair itself.
func drawBadge(img *image.RGBA, center image.Point, c color.RGBA) {
	cx, cy := center.X+crosshairArm+badgeRadius+2, center.Y-crosshairArm
	bounds := img.Bounds()
	for dy := -badgeRadius; dy <= badgeRadius; dy++ {
		for dx := -badgeRadius; dx <= badgeRadius; dx++ {
			if dx*dx+dy*dy > badgeRadius*badgeRadius {
				continue
			}
			p := image.Pt(cx+dx, cy+dy)
			if p.In(bounds) {
				img.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}
