package geometry

import "math"

// AngleDeg returns the angle in degrees of the vector from p0 to p1,
// measured counter-clockwise from the positive X axis, in (-180, 180].
func AngleDeg(p0, p1 Point2D) float64 {
	dx := p1.X - p0.X
	dy := p1.Y - p0.Y
	return NormalizeAngleDeg(math.Atan2(dy, dx) * 180.0 / math.Pi)
}

// NormalizeAngleDeg folds an angle of any magnitude into (-180, 180].
func NormalizeAngleDeg(a float64) float64 {
	a = math.Mod(a+180.0, 360.0)
	if a <= 0 {
		a += 360.0
	}
	return a - 180.0
}

// CircularAngleDiff returns the minimum angular distance between a and b,
// in [0, 180]. Both inputs may be any real value; they are normalized first.
func CircularAngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngleDeg(a) - NormalizeAngleDeg(b))
	if d > 180.0 {
		d = 360.0 - d
	}
	return d
}

// MMToPx converts a point from millimetres to pixels given a mm_per_px scale.
func MMToPx(p Point2D, mmPerPx float64) Point2D {
	return Point2D{X: p.X / mmPerPx, Y: p.Y / mmPerPx}
}

// PxToMM converts a point from pixels to millimetres given a mm_per_px scale.
func PxToMM(p Point2D, mmPerPx float64) Point2D {
	return Point2D{X: p.X * mmPerPx, Y: p.Y * mmPerPx}
}
