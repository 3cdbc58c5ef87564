package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// Fetcher opens the raw bytes of a frame.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (io.ReadCloser, error)
}

// Files reads frames from a file system.
type Files struct {
	FS fs.FS
}

func (f *Files) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.FS == nil {
		return os.Open(path)
	}
	// io/fs paths are unrooted and slash separated.
	return f.FS.Open(strings.TrimPrefix(path, "/"))
}

// HTTP fetches frames as static assets.
type HTTP struct {
	Client *http.Client
}

func (h *HTTP) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}
