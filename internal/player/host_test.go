package player

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/scrollseq/internal/scroll"
)

type fakeCanvas struct {
	bounding, client, parent float64
}

func (c *fakeCanvas) BoundingWidth() float64     { return c.bounding }
func (c *fakeCanvas) ClientWidth() float64       { return c.client }
func (c *fakeCanvas) ParentClientWidth() float64 { return c.parent }

type fakeSection struct {
	rect scroll.Rect
}

func (s *fakeSection) BoundingRect() scroll.Rect { return s.rect }

type listener struct {
	fn        func()
	cancelled bool
}

func (l *listener) Cancel() { l.cancelled = true }

type fakeHost struct {
	viewport Viewport
	ratio    float64
	canvases map[string]*fakeCanvas
	sections map[string]*fakeSection
	frames   []func()
	scrolls  []*listener
	resizes  []*listener
	tasks    chan func()
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		viewport: Viewport{Width: 1000, Height: 800, DocumentHeight: 4000},
		ratio:    1,
		canvases: map[string]*fakeCanvas{
			"about-sequence-canvas": {bounding: 400, parent: 900},
			"hero-sequence-canvas":  {bounding: 1000, client: 960, parent: 1000},
		},
		sections: map[string]*fakeSection{
			"about": {rect: scroll.Rect{Top: 900, Bottom: 1700, Height: 800}},
		},
		tasks: make(chan func(), 4096),
	}
}

func (h *fakeHost) RequestAnimationFrame(fn func()) { h.frames = append(h.frames, fn) }
func (h *fakeHost) Viewport() Viewport              { return h.viewport }
func (h *fakeHost) DevicePixelRatio() float64       { return h.ratio }
func (h *fakeHost) Dispatch(fn func())              { h.tasks <- fn }

func (h *fakeHost) Canvas(id string) (Canvas, bool) {
	c, ok := h.canvases[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (h *fakeHost) Section(id string) (Section, bool) {
	s, ok := h.sections[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (h *fakeHost) OnScroll(fn func()) Subscription {
	l := &listener{fn: fn}
	h.scrolls = append(h.scrolls, l)
	return l
}

func (h *fakeHost) OnResize(fn func()) Subscription {
	l := &listener{fn: fn}
	h.resizes = append(h.resizes, l)
	return l
}

// flushFrames runs the animation-frame callbacks queued so far.
func (h *fakeHost) flushFrames() int {
	cbs := h.frames
	h.frames = nil
	for _, fn := range cbs {
		fn()
	}
	return len(cbs)
}

func (h *fakeHost) fireScroll() {
	for _, l := range h.scrolls {
		if !l.cancelled {
			l.fn()
		}
	}
}

func (h *fakeHost) fireResize() {
	for _, l := range h.resizes {
		if !l.cancelled {
			l.fn()
		}
	}
}

// runTasks runs n dispatched tasks, waiting for each.
func (h *fakeHost) runTasks(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case fn := <-h.tasks:
			fn()
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for task %d of %d", i+1, n)
		}
	}
}

// sizedLoader returns a w x h frame for every path except those containing
// one of the fail substrings.
type sizedLoader struct {
	w, h int
	fail []string
}

func (l *sizedLoader) Load(ctx context.Context, path string) (image.Image, error) {
	for _, f := range l.fail {
		if strings.Contains(path, f) {
			return nil, errors.New("404 " + path)
		}
	}
	return image.NewRGBA(image.Rect(0, 0, l.w, l.h)), nil
}

// blockingLoader never delivers until the context ends, so tests can feed
// results by hand in any order.
type blockingLoader struct{}

func (blockingLoader) Load(ctx context.Context, path string) (image.Image, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
