package source

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/gen2brain/go-fitz"
)

const defaultDPI = 150

// FitzLoader rasterises the first page of a PDF frame.
type FitzLoader struct {
	Fetcher Fetcher
	DPI     int
}

func (l *FitzLoader) Load(ctx context.Context, path string) (image.Image, error) {
	rc, err := l.Fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, err
	}

	// Each worker gets its own document; MuPDF contexts are not shared.
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%s: no pages", path)
	}

	dpi := l.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return doc.ImageDPI(0, float64(dpi))
}
