package detect

import (
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

const (
	canvasSize = 140
	patchSize  = 80
)

// drawFiducial paints an asymmetric pattern of distinct shapes so ORB
// keypoints and RANSAC pose recovery aren't confused by rotational or
// mirror symmetry the way a plain checkerboard would be.
func drawFiducial(mat *gocv.Mat, originX, originY int) {
	mat.SetTo(gocv.NewScalar(235, 235, 235, 0))
	shapes := []struct {
		x, y, w, h int
	}{
		{originX + 5, originY + 5, 25, 25},
		{originX + 45, originY + 10, 15, 35},
		{originX + 10, originY + 50, 40, 10},
		{originX + 55, originY + 55, 18, 18},
	}
	for _, s := range shapes {
		gocv.Rectangle(mat, image.Rect(s.x, s.y, s.x+s.w, s.y+s.h), color.RGBA{R: 15, G: 15, B: 15, A: 255}, -1)
	}
	gocv.Line(mat, image.Pt(originX, originY+patchSize), image.Pt(originX+patchSize, originY), color.RGBA{R: 15, G: 15, B: 15, A: 255}, 2)
}

func writeFiducialTemplate(t *testing.T, dir, name string) string {
	t.Helper()
	img := gocv.NewMatWithSize(patchSize, patchSize, gocv.MatTypeCV8UC3)
	defer img.Close()
	drawFiducial(&img, 0, 0)
	path := filepath.Join(dir, name)
	if ok := gocv.IMWrite(path, img); !ok {
		t.Fatalf("failed to write fiducial template")
	}
	return path
}

// pasteFiducial composites a rotated, scaled copy of the fiducial pattern
// onto dst centered at centerPx, clipping to dst's bounds.
func pasteFiducial(dst *gocv.Mat, centerPx image.Point, angleDeg, scale float64) {
	canvas := gocv.NewMatWithSize(canvasSize, canvasSize, gocv.MatTypeCV8UC3)
	defer canvas.Close()
	canvas.SetTo(gocv.NewScalar(235, 235, 235, 0))
	origin := (canvasSize - patchSize) / 2
	drawFiducial(&canvas, origin, origin)

	rotated := gocv.NewMat()
	defer rotated.Close()
	rotMat := gocv.GetRotationMatrix2D(image.Pt(canvasSize/2, canvasSize/2), angleDeg, scale)
	defer rotMat.Close()
	gocv.WarpAffineWithParams(canvas, &rotated, rotMat, image.Pt(canvasSize, canvasSize),
		gocv.InterpolationLinear, gocv.BorderConstant, gocv.NewScalar(235, 235, 235, 0))

	platePx := image.Pt(dst.Cols(), dst.Rows())
	topLeft := image.Pt(centerPx.X-canvasSize/2, centerPx.Y-canvasSize/2)
	dstRect := image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(canvasSize, canvasSize))}
	clipped := dstRect.Intersect(image.Rect(0, 0, platePx.X, platePx.Y))
	if clipped.Empty() {
		return
	}
	srcRect := clipped.Sub(topLeft)

	srcRegion := rotated.Region(srcRect)
	defer srcRegion.Close()
	dstRegion := dst.Region(clipped)
	srcRegion.CopyTo(&dstRegion)
	dstRegion.Close()
}

// buildPlate renders a blank plate of the given pixel size with an optional
// fiducial pasted at centerPx, rotated by angleDeg and scaled by scale.
func buildPlate(platePx image.Point, centerPx image.Point, angleDeg, scale float64, paste bool) gocv.Mat {
	plate := gocv.NewMatWithSize(platePx.Y, platePx.X, gocv.MatTypeCV8UC3)
	plate.SetTo(gocv.NewScalar(235, 235, 235, 0))
	if paste {
		pasteFiducial(&plate, centerPx, angleDeg, scale)
	}
	return plate
}

func seedTestConfig(t *testing.T, templatePath string, positionMM geometry.Point2D, fallbackEnabled bool, minInliers int) *config.Config {
	t.Helper()
	return &config.Config{
		Plane: config.PlaneConfig{WidthMM: 200, HeightMM: 200, MMPerPx: 0.5},
		Logos: []config.LogoSpec{{
			Name:         "pecho",
			TemplatePath: templatePath,
			PositionMM:   positionMM,
			AngleDeg:     0,
			ROI:          config.RoiSpec{WidthMM: 60, HeightMM: 60, MarginFactor: 1.5},
		}},
		Threshold: config.Thresholds{
			MaxPositionErrorMM: 3.0, MaxAngleErrorDeg: 5.0, MinInliers: minInliers, MaxReprojErrorPx: 4.0,
		},
		Feature: config.FeatureParams{
			Type: config.FeatureORB, NFeatures: 800, ScaleFactor: 1.2, NLevels: 8,
			EdgeThreshold: 15, PatchSize: 15,
		},
		Matching: config.MatchingParams{
			Algorithm: config.MatchBruteForce, RatioTestThreshold: 0.8,
		},
		Fallback: config.FallbackParams{
			Enabled:        fallbackEnabled,
			Scales:         []float64{0.8, 0.9, 1.0, 1.1},
			AnglesDeg:      []float64{-10, -5, 0, 5, 7, 10},
			MatchThreshold: 0.5,
		},
	}
}

func TestDetectPerfectAlignment(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFiducialTemplate(t, dir, "pecho.png")
	cfg := seedTestConfig(t, tpl, geometry.Point2D{X: 100, Y: 100}, false, 8)

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	platePx := image.Pt(400, 400)
	centerPx := image.Pt(200, 200)
	frame := buildPlate(platePx, centerPx, 0, 1.0, true)
	defer frame.Close()

	results := engine.Detect(frame, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if !r.Found {
		t.Fatalf("expected found=true, state=%s", r.State())
	}
	if *r.ErrorMM >= 3.0 {
		t.Errorf("error_mm = %v, want < 3.0", *r.ErrorMM)
	}
	if *r.AngleErrorDeg >= 5.0 {
		t.Errorf("angle_error_deg = %v, want < 5.0", *r.AngleErrorDeg)
	}
	if !r.MeetsPositionTolerance || !r.MeetsAngleTolerance {
		t.Errorf("expected both tolerances met")
	}
}

func TestDetectOffsetOutOfTolerance(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFiducialTemplate(t, dir, "pecho.png")
	expected := geometry.Point2D{X: 100, Y: 100}
	cfg := seedTestConfig(t, tpl, expected, false, 8)

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	// paste the logo 5mm away from the expected position (10px at 0.5 mm/px)
	platePx := image.Pt(400, 400)
	centerPx := image.Pt(210, 200)
	frame := buildPlate(platePx, centerPx, 0, 1.0, true)
	defer frame.Close()

	results := engine.Detect(frame, nil)
	r := results[0]
	if !r.Found {
		t.Fatalf("expected found=true, state=%s", r.State())
	}
	if *r.ErrorMM < 4.0 || *r.ErrorMM > 6.0 {
		t.Errorf("error_mm = %v, want ~5.0", *r.ErrorMM)
	}
	if r.MeetsPositionTolerance {
		t.Errorf("expected meets_position_tolerance=false at 5mm offset with 3mm threshold")
	}
}

func TestDetectRotatedOutOfTolerance(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFiducialTemplate(t, dir, "pecho.png")
	expected := geometry.Point2D{X: 100, Y: 100}
	cfg := seedTestConfig(t, tpl, expected, false, 8)

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	platePx := image.Pt(400, 400)
	centerPx := image.Pt(200, 200)
	frame := buildPlate(platePx, centerPx, 10, 1.0, true)
	defer frame.Close()

	results := engine.Detect(frame, nil)
	r := results[0]
	if !r.Found {
		t.Fatalf("expected found=true, state=%s", r.State())
	}
	if math.Abs(*r.AngleDeg-10) >= 1.5 {
		t.Errorf("angle_deg = %v, want ~10", *r.AngleDeg)
	}
	if r.MeetsAngleTolerance {
		t.Errorf("expected meets_angle_tolerance=false at 10deg with 5deg threshold")
	}
}

func TestDetectAbsentLogo(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFiducialTemplate(t, dir, "pecho.png")
	cfg := seedTestConfig(t, tpl, geometry.Point2D{X: 100, Y: 100}, false, 8)

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	platePx := image.Pt(400, 400)
	frame := buildPlate(platePx, image.Pt(200, 200), 0, 1.0, false)
	defer frame.Close()

	results := engine.Detect(frame, nil)
	r := results[0]
	if r.Found {
		t.Fatalf("expected found=false on a blank plate")
	}
	if r.PositionMM != nil || r.AngleDeg != nil || r.Inliers != nil {
		t.Errorf("expected all pose fields nil when not found")
	}
	if r.ProcessingTimeMs <= 0 {
		t.Errorf("expected positive processing_time_ms")
	}
}

func TestDetectFallbackOnly(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFiducialTemplate(t, dir, "pecho.png")
	expected := geometry.Point2D{X: 100, Y: 100}
	// min_inliers set unreachably high forces the primary RANSAC path to
	// always be rejected, regardless of how well matching performs, so the
	// fallback path is the only way this scenario can succeed.
	cfg := seedTestConfig(t, tpl, expected, true, 1000)

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	platePx := image.Pt(400, 400)
	centerPx := image.Pt(200, 200)
	frame := buildPlate(platePx, centerPx, 7, 0.9, true)
	defer frame.Close()

	results := engine.Detect(frame, nil)
	r := results[0]
	if !r.Found {
		t.Fatalf("expected found=true via fallback, state=%s", r.State())
	}
	if r.MethodUsed == nil || *r.MethodUsed != methodFallback {
		t.Fatalf("expected method_used=%q, got %v", methodFallback, r.MethodUsed)
	}
	if r.Inliers != nil || r.ReprojErrorPx != nil {
		t.Errorf("expected inliers and reproj_error_px to be nil for a fallback result")
	}
}

func TestDetectTwoLogosOneOkOneAdjust(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFiducialTemplate(t, dir, "shared.png")

	cfg := &config.Config{
		Plane: config.PlaneConfig{WidthMM: 300, HeightMM: 300, MMPerPx: 0.5},
		Logos: []config.LogoSpec{
			{
				Name: "pecho", TemplatePath: tpl,
				PositionMM: geometry.Point2D{X: 100, Y: 100}, AngleDeg: 0,
				ROI: config.RoiSpec{WidthMM: 60, HeightMM: 60, MarginFactor: 1.5},
			},
			{
				Name: "manga_izq", TemplatePath: tpl,
				PositionMM: geometry.Point2D{X: 200, Y: 150}, AngleDeg: 0,
				ROI: config.RoiSpec{WidthMM: 60, HeightMM: 60, MarginFactor: 1.5},
			},
		},
		Threshold: config.Thresholds{
			MaxPositionErrorMM: 3.0, MaxAngleErrorDeg: 5.0, MinInliers: 8, MaxReprojErrorPx: 4.0,
		},
		Feature: config.FeatureParams{
			Type: config.FeatureORB, NFeatures: 800, ScaleFactor: 1.2, NLevels: 8,
			EdgeThreshold: 15, PatchSize: 15,
		},
		Matching: config.MatchingParams{Algorithm: config.MatchBruteForce, RatioTestThreshold: 0.8},
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer engine.Close()

	platePx := image.Pt(600, 600)
	plate := gocv.NewMatWithSize(platePx.Y, platePx.X, gocv.MatTypeCV8UC3)
	plate.SetTo(gocv.NewScalar(235, 235, 235, 0))
	defer plate.Close()

	// pecho placed exactly at its expected pixel position
	pasteFiducial(&plate, image.Pt(200, 200), 0, 1.0)
	// manga_izq placed 6mm (12px) away from its expected position
	pasteFiducial(&plate, image.Pt(412, 300), 0, 1.0)

	results := engine.Detect(plate, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "pecho" || results[1].Name != "manga_izq" {
		t.Fatalf("expected results in configuration order, got %s, %s", results[0].Name, results[1].Name)
	}
	if !results[0].Found || !results[0].MeetsPositionTolerance {
		t.Errorf("expected pecho to be found and within tolerance")
	}
	if !results[1].Found || results[1].MeetsPositionTolerance {
		t.Errorf("expected manga_izq to be found but out of position tolerance")
	}
}
