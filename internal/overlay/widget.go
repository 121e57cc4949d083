package overlay

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/mauroandres1246/align-press-2/internal/detect"
)

// View is a read-only widget that displays the rectified plate image with
// one crosshair-and-badge marker per logo, adapted from the reference
// codebase's ImageCanvas raster-and-overlay drawing approach but without
// its pan/zoom/edit tooling, since an operator only ever observes here.
type View struct {
	widget.BaseWidget

	image   *canvas.Image
	mmPerPx float64
}

// NewView creates an empty View; call Update to populate it with a frame.
func NewView(mmPerPx float64) *View {
	v := &View{image: canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1))), mmPerPx: mmPerPx}
	v.image.FillMode = canvas.ImageFillContain
	v.ExtendBaseWidget(v)
	return v
}

// Update re-renders the view from a rectified plate image, the engine's
// expected marker positions, and the latest detection results.
func (v *View) Update(plate image.Image, expectedPx map[string]image.Point, results []detect.LogoResult) {
	markers := BuildMarkers(results, expectedPx, v.mmPerPx)
	rendered := Render(plate, markers)
	v.image.Image = rendered
	canvas.Refresh(v.image)
}

// CreateRenderer implements fyne.Widget.
func (v *View) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.image)
}
