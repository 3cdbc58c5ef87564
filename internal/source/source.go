package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/ivlev/scrollseq/internal/config"
)

// ErrUnsupported is returned for frame extensions no loader can decode.
var ErrUnsupported = errors.New("unsupported frame format")

// Loader fetches and decodes one frame.
type Loader interface {
	Load(ctx context.Context, path string) (image.Image, error)
}

// Options configures the loader chosen by ForSequence.
type Options struct {
	// FS serves local frame paths. Nil means the operating system's file system.
	FS fs.FS
	// Client fetches frames whose base path is an http(s) URL. Nil means http.DefaultClient.
	Client *http.Client
	// DPI is the rasterisation density of PDF frames.
	DPI int
}

var rasterExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// ForSequence picks a loader from the sequence's base path scheme and extension.
func ForSequence(seq config.Sequence, opts Options) (Loader, error) {
	var fetcher Fetcher
	if isURL(seq.BasePath) {
		fetcher = &HTTP{Client: opts.Client}
	} else {
		fetcher = &Files{FS: opts.FS}
	}

	ext := strings.ToLower(path.Ext("x" + seq.Extension))
	switch {
	case ext == ".pdf":
		return &FitzLoader{Fetcher: fetcher, DPI: opts.DPI}, nil
	case rasterExtensions[ext]:
		return &ImageLoader{Fetcher: fetcher}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, seq.Extension)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
