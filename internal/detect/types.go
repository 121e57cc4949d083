// Package detect implements the per-frame planar logo detection engine:
// rectification, per-logo ROI search, feature matching, RANSAC homography
// estimation, pose decomposition, and acceptance against configured
// tolerances, falling back to template matching when the primary path
// fails.
package detect

import (
	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

// LogoResult is the engine's per-logo output for one Detect call.
type LogoResult struct {
	Name string `json:"name"`
	Found bool  `json:"found"`

	PositionMM    *geometry.Point2D `json:"position_mm"`
	AngleDeg      *float64          `json:"angle_deg"`
	ErrorMM       *float64          `json:"error_mm"`
	AngleErrorDeg *float64          `json:"angle_error_deg"`
	Confidence    *float64          `json:"confidence"`
	Inliers       *int              `json:"inliers"`
	ReprojErrorPx *float64          `json:"reproj_error_px"`
	MethodUsed    *string           `json:"method_used"`

	ProcessingTimeMs       float64 `json:"processing_time_ms"`
	MeetsPositionTolerance bool    `json:"meets_position_tolerance"`
	MeetsAngleTolerance    bool    `json:"meets_angle_tolerance"`

	// state is the internal diagnostic classification (§4.6); never
	// serialized, used only for logging and metrics labels.
	state diagnosticState
}

// State returns the result's internal diagnostic state, for callers that
// want to log or label metrics by the reason a logo was or wasn't found.
func (r LogoResult) State() string {
	return string(r.state)
}

// diagnosticState classifies why a logo was or wasn't found. Purely
// observational: it never feeds back into later frames.
type diagnosticState string

const (
	stateRoiOutside     diagnosticState = "NotFound/RoiOutside"
	stateTooFewMatches  diagnosticState = "NotFound/TooFewMatches"
	stateRansacRejected diagnosticState = "NotFound/RansacRejected"
	stateFoundPrimary   diagnosticState = "FoundPrimary"
	stateFoundFallback  diagnosticState = "FoundFallback"
	stateFallbackFailed diagnosticState = "NotFound/FallbackFailed"
)

func methodPrimary(featureType string) string {
	return featureType + "+RANSAC"
}

const methodFallback = "template_fallback"
