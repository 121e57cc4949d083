package detect

import (
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
	"github.com/mauroandres1246/align-press-2/internal/fallback"
	"github.com/mauroandres1246/align-press-2/internal/imageutil"
	"github.com/mauroandres1246/align-press-2/internal/metrics"
	"github.com/mauroandres1246/align-press-2/internal/template"
	"github.com/mauroandres1246/align-press-2/pkg/geometry"
)

// Engine runs the configured logos' detection pipeline against a single
// rectified frame at a time. It is synchronous and not safe for concurrent
// Detect calls on the same instance; construct one Engine per concurrent
// caller.
type Engine struct {
	cfg       *config.Config
	store     *template.Store
	extractor template.Extractor
	norm      gocv.NormType
}

// NewEngine validates cfg, loads every logo's template, and extracts its
// keypoints once. It returns a *config.ConfigError on any failure.
func NewEngine(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := template.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	ext, norm, err := template.NewExtractor(cfg.Feature)
	if err != nil {
		store.Close()
		return nil, &config.ConfigError{Kind: config.InvalidConfiguration, Field: "feature_params.type", Err: err}
	}
	return &Engine{cfg: cfg, store: store, extractor: ext, norm: norm}, nil
}

// Close releases every gocv resource the engine owns (template cache and
// the ROI feature extractor). Call once when the engine is no longer used.
func (e *Engine) Close() {
	e.store.Close()
	e.extractor.Close()
}

// Detect rectifies frame (using homographyOverride if non-nil, else the
// engine's configured homography, else the identity) and runs the
// detection pipeline for every configured logo, in configuration order.
func (e *Engine) Detect(frame gocv.Mat, homographyOverride *[9]float64) []LogoResult {
	hom := e.cfg.Plane.Homography
	if homographyOverride != nil {
		hom = homographyOverride
	}

	outSize := image.Pt(
		int(e.cfg.Plane.WidthMM/e.cfg.Plane.MMPerPx),
		int(e.cfg.Plane.HeightMM/e.cfg.Plane.MMPerPx),
	)
	rectified := imageutil.Rectify(frame, hom, outSize)
	defer rectified.Close()

	metrics.FramesProcessed.Inc()
	results := make([]LogoResult, 0, len(e.cfg.Logos))
	for _, logo := range e.cfg.Logos {
		r := e.detectLogo(rectified, logo)
		metrics.Observe(r.Name, r.State(), r.Found, r.ProcessingTimeMs, r.Confidence, r.Inliers)
		results = append(results, r)
	}
	return results
}

func (e *Engine) detectLogo(rectified gocv.Mat, logo config.LogoSpec) LogoResult {
	start := time.Now()
	mmPerPx := e.cfg.Plane.MMPerPx

	expectedPx := geometry.MMToPx(logo.PositionMM, mmPerPx)
	windowMM := geometry.Point2D{
		X: logo.ROI.WidthMM * logo.ROI.MarginFactor,
		Y: logo.ROI.HeightMM * logo.ROI.MarginFactor,
	}
	windowPx := geometry.MMToPx(windowMM, mmPerPx)
	sizePx := image.Pt(int(windowPx.X), int(windowPx.Y))
	centerPt := image.Pt(int(expectedPx.X), int(expectedPx.Y))

	roi, ok := imageutil.Extract(rectified, centerPt, sizePx)
	if !ok {
		log.Printf("detect: logo=%s state=%s", logo.Name, stateRoiOutside)
		return notFound(logo.Name, stateRoiOutside, start)
	}
	defer roi.Mat.Close()

	var roiGray gocv.Mat
	if roi.Mat.Channels() == 3 {
		roiGray = gocv.NewMat()
		gocv.CvtColor(roi.Mat, &roiGray, gocv.ColorBGRToGray)
	} else {
		roiGray = roi.Mat.Clone()
	}
	defer roiGray.Close()

	tpl, haveTpl := e.store.Get(logo.Name)
	if !haveTpl {
		log.Printf("detect: logo=%s state=missing-template", logo.Name)
		return notFound(logo.Name, stateTooFewMatches, start)
	}

	noMask := gocv.NewMat()
	defer noMask.Close()
	roiKeypoints, roiDescriptors := e.extractor.DetectAndCompute(roiGray, noMask)
	defer roiDescriptors.Close()

	minMatches := e.cfg.Threshold.MinInliers
	if minMatches < 4 {
		minMatches = 4
	}

	correspondences := matchDescriptors(e.norm, e.cfg.Matching, tpl, roiKeypoints, roiDescriptors)
	if len(correspondences) < minMatches {
		log.Printf("detect: logo=%s state=%s matches=%d", logo.Name, stateTooFewMatches, len(correspondences))
		return e.tryFallback(roiGray, tpl, logo, roi.Offset, start, stateTooFewMatches)
	}

	src := make([]geometry.Point2D, len(correspondences))
	dst := make([]geometry.Point2D, len(correspondences))
	for i, c := range correspondences {
		src[i] = c.templatePt
		dst[i] = c.roiPt
	}

	est := estimateHomography(src, dst, e.cfg.Threshold.MaxReprojErrorPx)
	if !est.ok || est.inliers < e.cfg.Threshold.MinInliers ||
		est.reprojErrorPx > e.cfg.Threshold.MaxReprojErrorPx || !isWellConditioned(est.h) {
		log.Printf("detect: logo=%s state=%s inliers=%d reproj=%.2f", logo.Name, stateRansacRejected, est.inliers, est.reprojErrorPx)
		return e.tryFallback(roiGray, tpl, logo, roi.Offset, start, stateRansacRejected)
	}

	roiOffsetPx := geometry.Point2D{X: float64(roi.Offset.X), Y: float64(roi.Offset.Y)}
	centerPx, angleDeg := decomposePose(est.h, tpl.Corners(), roiOffsetPx)
	detectedMM := geometry.PxToMM(centerPx, mmPerPx)

	errorMM := detectedMM.Distance(logo.PositionMM)
	angleErrorDeg := geometry.CircularAngleDiff(angleDeg, logo.AngleDeg)

	inlierRatio := clamp01(float64(est.inliers) / float64(len(correspondences)))
	reprojTerm := 1 - minF(1, est.reprojErrorPx/e.cfg.Threshold.MaxReprojErrorPx)
	confidence := clamp01(inlierRatio * reprojTerm)

	method := methodPrimary(string(e.cfg.Feature.Type))
	inliers := est.inliers
	reprojErr := est.reprojErrorPx

	log.Printf("detect: logo=%s state=%s inliers=%d reproj=%.2f confidence=%.3f", logo.Name, stateFoundPrimary, inliers, reprojErr, confidence)

	return LogoResult{
		Name:                   logo.Name,
		Found:                  true,
		PositionMM:             &detectedMM,
		AngleDeg:               &angleDeg,
		ErrorMM:                &errorMM,
		AngleErrorDeg:          &angleErrorDeg,
		Confidence:             &confidence,
		Inliers:                &inliers,
		ReprojErrorPx:          &reprojErr,
		MethodUsed:             &method,
		ProcessingTimeMs:       elapsedMs(start),
		MeetsPositionTolerance: errorMM <= e.cfg.Threshold.MaxPositionErrorMM,
		MeetsAngleTolerance:    angleErrorDeg <= e.cfg.Threshold.MaxAngleErrorDeg,
		state:                  stateFoundPrimary,
	}
}

// tryFallback runs the template-matching fallback when the primary path
// has failed for prevState's reason. It never overrides a primary success
// since it is only called on primary failure.
func (e *Engine) tryFallback(roiGray gocv.Mat, tpl *template.Template, logo config.LogoSpec,
	roiOffset image.Point, start time.Time, prevState diagnosticState) LogoResult {

	if !e.cfg.Fallback.Enabled {
		return notFound(logo.Name, stateFallbackFailed, start)
	}

	hit, ok := fallback.Detect(tpl.Gray, tpl.Mask, roiGray, e.cfg.Fallback)
	if !ok {
		log.Printf("detect: logo=%s state=%s prev=%s", logo.Name, stateFallbackFailed, prevState)
		return notFound(logo.Name, stateFallbackFailed, start)
	}

	mmPerPx := e.cfg.Plane.MMPerPx
	centerPx := geometry.Point2D{
		X: float64(hit.PeakLoc.X+hit.TplSize.X/2+roiOffset.X),
		Y: float64(hit.PeakLoc.Y+hit.TplSize.Y/2+roiOffset.Y),
	}
	detectedMM := geometry.PxToMM(centerPx, mmPerPx)
	errorMM := detectedMM.Distance(logo.PositionMM)
	angleErrorDeg := geometry.CircularAngleDiff(hit.AngleDeg, logo.AngleDeg)
	confidence := clamp01(hit.Score)
	angleDeg := hit.AngleDeg
	method := methodFallback

	log.Printf("detect: logo=%s state=%s score=%.3f", logo.Name, stateFoundFallback, hit.Score)

	return LogoResult{
		Name:                   logo.Name,
		Found:                  true,
		PositionMM:             &detectedMM,
		AngleDeg:               &angleDeg,
		ErrorMM:                &errorMM,
		AngleErrorDeg:          &angleErrorDeg,
		Confidence:             &confidence,
		Inliers:                nil,
		ReprojErrorPx:          nil,
		MethodUsed:             &method,
		ProcessingTimeMs:       elapsedMs(start),
		MeetsPositionTolerance: errorMM <= e.cfg.Threshold.MaxPositionErrorMM,
		MeetsAngleTolerance:    angleErrorDeg <= e.cfg.Threshold.MaxAngleErrorDeg,
		state:                  stateFoundFallback,
	}
}

func notFound(name string, state diagnosticState, start time.Time) LogoResult {
	return LogoResult{
		Name:             name,
		Found:            false,
		ProcessingTimeMs: elapsedMs(start),
		state:            state,
	}
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
