package frames

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gg"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollseq/internal/source"
)

var errEmptyFrame = errors.New("empty frame")

// Preload loads every path concurrently and passes each result to deliver.
// Deliver runs on the loader goroutines, in completion order. Workers bounds
// the number of loads in flight; zero or less starts them all at once.
// The returned channel closes after the last delivery.
func Preload(ctx context.Context, paths []string, loader source.Loader, workers int, deliver func(Result)) <-chan struct{} {
	done := make(chan struct{})

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}

	go func() {
		defer close(done)
		for i, path := range paths {
			g.Go(func() error {
				deliver(load(ctx, loader, i, path))
				return nil
			})
		}
		g.Wait()
	}()

	return done
}

func load(ctx context.Context, loader source.Loader, index int, path string) Result {
	img, err := loader.Load(ctx, path)
	if err != nil {
		return Result{Index: index, Err: err}
	}

	b := img.Bounds()
	if b.Empty() {
		return Result{Index: index, Err: fmt.Errorf("%s: %w", path, errEmptyFrame)}
	}

	return Result{
		Index:  index,
		Image:  gg.ImageBufFromImage(img),
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}
