// Command detectcli runs the logo detection pipeline against a single
// still frame and prints per-logo results, grounded on the reference
// codebase's one-shot alignment test harness.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/config"
	"github.com/mauroandres1246/align-press-2/internal/detect"
)

func main() {
	cfgPath := flag.String("c", "", "Path to the plane/logo configuration YAML")
	framePath := flag.String("f", "", "Path to the captured frame image")
	flag.Parse()

	if *cfgPath == "" || *framePath == "" {
		fmt.Println("Usage: detectcli -c <config.yaml> -f <frame.png>")
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	engine, err := detect.NewEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	frame := gocv.IMRead(*framePath, gocv.IMReadColor)
	if frame.Empty() {
		fmt.Fprintf(os.Stderr, "Failed to read frame: %s\n", *framePath)
		os.Exit(1)
	}
	defer frame.Close()

	fmt.Printf("=== Detecting against %s ===\n", *framePath)
	results := engine.Detect(frame, nil)
	printResults(results)
}

func printResults(results []detect.LogoResult) {
	for _, r := range results {
		if !r.Found {
			fmt.Printf("%-16s NOT FOUND  (%s, %.1f ms)\n", r.Name, r.State(), r.ProcessingTimeMs)
			continue
		}

		status := "ADJUST"
		if r.MeetsPositionTolerance && r.MeetsAngleTolerance {
			status = "OK"
		}

		pos := image.Point{}
		if r.PositionMM != nil {
			pos = image.Pt(int(r.PositionMM.X), int(r.PositionMM.Y))
		}

		fmt.Printf("%-16s %-6s pos=(%d,%d)mm angle=%.2f° err=%.2fmm/%.2f° conf=%.2f inliers=%v method=%v (%.1f ms)\n",
			r.Name, status, pos.X, pos.Y,
			deref(r.AngleDeg), deref(r.ErrorMM), deref(r.AngleErrorDeg), deref(r.Confidence),
			derefInt(r.Inliers), derefStr(r.MethodUsed), r.ProcessingTimeMs)
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefInt(i *int) string {
	if i == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *i)
}

func derefStr(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
