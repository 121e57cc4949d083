// Package config loads and validates the engine configuration: the plate
// geometry, the set of logos to detect, and the feature/matching/fallback
// parameters that govern the detection pipeline.
package config

import "github.com/mauroandres1246/align-press-2/pkg/geometry"

// FeatureType selects the descriptor family used for keypoint extraction.
type FeatureType string

const (
	FeatureORB   FeatureType = "ORB"
	FeatureAKAZE FeatureType = "AKAZE"
	FeatureSIFT  FeatureType = "SIFT"
)

// TransparencyMethod selects how a binary mask is derived for a logo
// template that carries (or is declared to carry) transparency.
type TransparencyMethod string

const (
	TransparencyThreshold TransparencyMethod = "threshold"
	TransparencyContour   TransparencyMethod = "contour"
	TransparencyGrabcut   TransparencyMethod = "grabcut"
)

// MatchAlgorithm selects the descriptor matching strategy.
type MatchAlgorithm string

const (
	MatchBruteForce MatchAlgorithm = "bruteforce"
	MatchFlann      MatchAlgorithm = "flann"
)

// PlaneConfig describes the physical plate the camera looks at.
type PlaneConfig struct {
	WidthMM    float64    `yaml:"width_mm"`
	HeightMM   float64    `yaml:"height_mm"`
	MMPerPx    float64    `yaml:"mm_per_px"`
	Homography *[9]float64 `yaml:"homography,omitempty"`
}

// RoiSpec describes the search window around a logo's expected position.
type RoiSpec struct {
	WidthMM      float64 `yaml:"width_mm"`
	HeightMM     float64 `yaml:"height_mm"`
	MarginFactor float64 `yaml:"margin_factor"`
}

// LogoSpec describes a single logo to detect.
type LogoSpec struct {
	Name                string             `yaml:"name"`
	TemplatePath        string             `yaml:"template_path"`
	PositionMM          geometry.Point2D   `yaml:"position_mm"`
	AngleDeg            float64            `yaml:"angle_deg"`
	ROI                 RoiSpec            `yaml:"roi"`
	HasTransparency     bool               `yaml:"has_transparency"`
	TransparencyMethod  TransparencyMethod `yaml:"transparency_method"`
}

// Thresholds is the acceptance policy applied to a primary-path detection.
type Thresholds struct {
	MaxPositionErrorMM float64 `yaml:"max_position_error_mm"`
	MaxAngleErrorDeg   float64 `yaml:"max_angle_error_deg"`
	MinInliers         int     `yaml:"min_inliers"`
	MaxReprojErrorPx   float64 `yaml:"max_reproj_error_px"`
}

// FeatureParams configures keypoint/descriptor extraction.
type FeatureParams struct {
	Type          FeatureType `yaml:"type"`
	NFeatures     int         `yaml:"nfeatures"`
	ScaleFactor   float64     `yaml:"scale_factor"`
	NLevels       int         `yaml:"nlevels"`
	EdgeThreshold int         `yaml:"edge_threshold"`
	PatchSize     int         `yaml:"patch_size"`
}

// MatchingParams configures descriptor matching between template and ROI.
type MatchingParams struct {
	Algorithm          MatchAlgorithm `yaml:"algorithm"`
	RatioTestThreshold float64        `yaml:"ratio_test_threshold"`
	CrossCheck         bool           `yaml:"cross_check"`
}

// FallbackParams configures the template-matching fallback detector.
type FallbackParams struct {
	Enabled        bool      `yaml:"enabled"`
	Scales         []float64 `yaml:"scales"`
	AnglesDeg      []float64 `yaml:"angles_deg"`
	MatchThreshold float64   `yaml:"match_threshold"`
}

// Config is the complete, as-loaded configuration for an engine instance.
type Config struct {
	Plane     PlaneConfig     `yaml:"plane"`
	Logos     []LogoSpec      `yaml:"logos"`
	Threshold Thresholds      `yaml:"thresholds"`
	Feature   FeatureParams   `yaml:"feature_params"`
	Matching  MatchingParams  `yaml:"matching_params"`
	Fallback  FallbackParams  `yaml:"fallback"`
}
