package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTempTemplate(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not a real image, just needs to exist"), 0o644); err != nil {
		t.Fatalf("writeTempTemplate: %v", err)
	}
	return path
}

func baseYAML(templatePath string) string {
	return `
plane:
  width_mm: 500
  height_mm: 600
  mm_per_px: 0.5
logos:
  - name: pecho
    template_path: ` + templatePath + `
    position_mm: {x: 250, y: 300}
    angle_deg: 0
    roi:
      width_mm: 80
      height_mm: 80
      margin_factor: 1.5
thresholds:
  max_position_error_mm: 3.0
  max_angle_error_deg: 5.0
  min_inliers: 8
  max_reproj_error_px: 3.0
feature_params:
  type: ORB
  nfeatures: 500
  scale_factor: 1.2
  nlevels: 8
matching_params:
  algorithm: bruteforce
  ratio_test_threshold: 0.75
  cross_check: false
fallback:
  enabled: false
`
}

func TestParseValidConfig(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTempTemplate(t, dir, "pecho.png")
	cfg, err := Parse([]byte(baseYAML(tpl)))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if len(cfg.Logos) != 1 || cfg.Logos[0].Name != "pecho" {
		t.Fatalf("unexpected logos: %+v", cfg.Logos)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTempTemplate(t, dir, "pecho.png")

	cases := []struct {
		name    string
		mutate  func(string) string
		wantKind ErrorKind
	}{
		{
			name: "negative plate width",
			mutate: func(y string) string {
				return replaceOnce(y, "width_mm: 500", "width_mm: -1")
			},
			wantKind: InvalidConfiguration,
		},
		{
			name: "mm_per_px looks inverted",
			mutate: func(y string) string {
				return replaceOnce(y, "mm_per_px: 0.5", "mm_per_px: 200")
			},
			wantKind: InvalidConfiguration,
		},
		{
			name: "position outside plate",
			mutate: func(y string) string {
				return replaceOnce(y, "position_mm: {x: 250, y: 300}", "position_mm: {x: 9000, y: 300}")
			},
			wantKind: InvalidConfiguration,
		},
		{
			name: "unknown feature type",
			mutate: func(y string) string {
				return replaceOnce(y, "type: ORB", "type: MADE_UP")
			},
			wantKind: InvalidConfiguration,
		},
		{
			name: "missing template file",
			mutate: func(y string) string {
				return replaceOnce(y, tpl, filepath.Join(dir, "does-not-exist.png"))
			},
			wantKind: TemplateUnavailable,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.mutate(baseYAML(tpl))))
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if cerr.Kind != c.wantKind {
				t.Errorf("got kind %v, want %v", cerr.Kind, c.wantKind)
			}
		})
	}
}

func TestParseRejectsDuplicateLogoNames(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTempTemplate(t, dir, "pecho.png")
	y := baseYAML(tpl)
	// insert a second logo with the same name at the end of the logos list
	y = replaceOnce(y, "thresholds:", `  - name: pecho
    template_path: `+tpl+`
    position_mm: {x: 100, y: 100}
    angle_deg: 0
    roi: {width_mm: 50, height_mm: 50, margin_factor: 1.5}
thresholds:`)
	_, err := Parse([]byte(y))
	if err == nil {
		t.Fatalf("expected duplicate-name error")
	}
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Field != "name" {
		t.Fatalf("expected a *ConfigError on field %q, got %v", "name", err)
	}
}

func replaceOnce(s, old, new string) string {
	idx := indexOf(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
