package system

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFindLatestConfig(t *testing.T) {
	dir := t.TempDir()
	files := []string{"old.yaml", "newest.yml", "middle.yaml", "readme.md"}
	base := time.Now().Add(-time.Hour)
	for i, name := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("workers: 1\n"), 0644); err != nil {
			t.Fatal(err)
		}
		var mod time.Time
		switch name {
		case "newest.yml":
			mod = base.Add(30 * time.Minute)
		case "readme.md":
			mod = base.Add(50 * time.Minute)
		default:
			mod = base.Add(time.Duration(i) * time.Minute)
		}
		os.Chtimes(p, mod, mod)
	}

	got, err := FindLatestConfig(dir)
	if err != nil {
		t.Fatalf("FindLatestConfig failed: %v", err)
	}
	if filepath.Base(got) != "newest.yml" {
		t.Errorf("got %s, want newest.yml", got)
	}
}

func TestFindLatestEmpty(t *testing.T) {
	_, err := FindLatest(t.TempDir(), ".png")
	if err == nil || !strings.Contains(err.Error(), ".png") {
		t.Errorf("error = %v", err)
	}

	if _, err := FindLatest(filepath.Join(t.TempDir(), "missing"), ".png"); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestImagePool(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 8, 4)

	img := p.Get(rect)
	if img.Rect != rect || len(img.Pix) != 8*4*4 {
		t.Fatalf("unexpected buffer %v, %d bytes", img.Rect, len(img.Pix))
	}
	p.Put(img)

	// Unknown sizes are dropped rather than pooled.
	p.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	p.Put(nil)

	if other := p.Get(image.Rect(0, 0, 2, 2)); other.Rect.Dx() != 2 {
		t.Errorf("wrong size from pool: %v", other.Rect)
	}

	shared := GetImage(rect)
	PutImage(shared)
}

func TestReadUsage(t *testing.T) {
	u, err := ReadUsage()
	if err != nil {
		t.Skipf("memory stats unavailable: %v", err)
	}
	if u.RSS == 0 || u.Total == 0 {
		t.Errorf("empty usage: %+v", u)
	}
	t.Logf("Usage: %s", u)
}
