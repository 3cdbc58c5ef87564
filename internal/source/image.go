package source

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageLoader decodes raster frames with the registered image codecs.
type ImageLoader struct {
	Fetcher Fetcher
}

func (l *ImageLoader) Load(ctx context.Context, path string) (image.Image, error) {
	rc, err := l.Fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
