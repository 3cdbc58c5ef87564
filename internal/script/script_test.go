package script

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func abs(x float64) float64 { return math.Abs(x) }

func TestPosition(t *testing.T) {
	keyframes := []Keyframe{
		{Time: 0, Scroll: 0},
		{Time: 2, Scroll: 1000, Ease: EaseLinear},
		{Time: 4, Scroll: 1000, Ease: EaseLinear},
		{Time: 6, Scroll: 0},
	}

	tests := []struct {
		time float64
		want float64
	}{
		{-1, 0},     // before the first keyframe
		{0, 0},      // first keyframe
		{1, 500},    // linear midpoint
		{2, 1000},   // second keyframe
		{3, 1000},   // hold
		{5, 500},    // cubic midpoint is symmetric
		{5.5, 62.5}, // cubic three quarters
		{6, 0},      // last keyframe
		{9, 0},      // after the last keyframe
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := Position(keyframes, tt.time)
			if abs(got-tt.want) > 1e-9 {
				t.Errorf("At time %.1f: expected %.2f, got %.2f", tt.time, tt.want, got)
			}
		})
	}

	if Position(nil, 3) != 0 {
		t.Error("empty keyframes should give 0")
	}
}

func TestPositionEases(t *testing.T) {
	for name := range curves {
		kfs := []Keyframe{{Time: 0, Scroll: 100}, {Time: 1, Scroll: 200, Ease: name}}
		if got := Position(kfs, 0.5); got < 100 || got > 200 {
			t.Errorf("%q midpoint %.2f outside range", name, got)
		}
		if got := Position(kfs, 1); got != 200 {
			t.Errorf("%q end = %.2f", name, got)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		kfs     []Keyframe
		wantErr bool
	}{
		{"empty", nil, true},
		{"ok", []Keyframe{{Time: 0}, {Time: 1, Scroll: 10, Ease: EaseOutCubic}}, false},
		{"backwards", []Keyframe{{Time: 2}, {Time: 1}}, true},
		{"negative", []Keyframe{{Time: -1}}, true},
		{"unknown ease", []Keyframe{{Time: 0}, {Time: 1, Ease: "bounce"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Script{Keyframes: tt.kfs}
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestLinear(t *testing.T) {
	s := Linear(0, 3200, 4, 8)
	if len(s.Keyframes) != 9 {
		t.Fatalf("got %d keyframes, want 9", len(s.Keyframes))
	}
	if s.Duration() != 4 {
		t.Errorf("Duration = %v", s.Duration())
	}
	if got := s.At(1); abs(got-800) > 1e-9 {
		t.Errorf("At(1) = %v, want 800", got)
	}
	if got := s.Steps(30); got != 121 {
		t.Errorf("Steps(30) = %d, want 121", got)
	}
	if err := s.Validate(); err != nil {
		t.Error(err)
	}
}

func TestSweep(t *testing.T) {
	s := Sweep(2000, 10)
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.At(4.5) != 2000 {
		t.Errorf("hold at bottom = %v", s.At(4.5))
	}
	if s.At(10) != 0 {
		t.Errorf("end = %v", s.At(10))
	}
}

func TestReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yaml")
	in := Linear(100, 900, 2, 2)
	if err := Write(in, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(out.Keyframes) != 3 || out.Keyframes[2].Scroll != 900 || out.Keyframes[1].Ease != EaseLinear {
		t.Errorf("round trip lost data: %+v", out.Keyframes)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("version: \"1.0\"\nkeyframes: []\n"), 0644)
	if _, err := Read(bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("Read() error = %v, want ErrInvalid", err)
	}
}

func TestGeneratePath(t *testing.T) {
	path := GeneratePath()

	if !strings.Contains(path, "script_") || !strings.HasSuffix(path, ".yaml") {
		t.Errorf("unexpected path: %s", path)
	}
	if filepath.Dir(path) != Dir {
		t.Errorf("path should be in %s: %s", Dir, path)
	}

	t.Logf("Generated path: %s", path)
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"script_2026-02-12_10-00-00.yaml",
		"script_2026-02-13_01-00-00.yml",
		"script_2026-02-11_15-30-00.yaml",
		"notes.txt",
	}
	base := time.Now()
	for i, f := range files {
		p := filepath.Join(dir, f)
		os.WriteFile(p, []byte("version: \"1.0\"\n"), 0644)
		modTime := base.Add(time.Duration(i) * time.Hour)
		os.Chtimes(p, modTime, modTime)
	}

	latest, err := FindLatest(dir)
	if err != nil {
		t.Fatalf("FindLatest failed: %v", err)
	}
	if filepath.Base(latest) != "script_2026-02-11_15-30-00.yaml" {
		t.Errorf("latest = %s", latest)
	}

	if _, err := FindLatest(t.TempDir()); err == nil {
		t.Error("expected error for empty dir")
	}
	if _, err := FindLatest(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing dir")
	}
}
