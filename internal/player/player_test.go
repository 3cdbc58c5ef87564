package player

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/gogpu/gg"

	"github.com/ivlev/scrollseq/internal/config"
	"github.com/ivlev/scrollseq/internal/frames"
	"github.com/ivlev/scrollseq/internal/scroll"
)

func aboutSeq(n int) config.Sequence {
	s := config.AboutLogo()
	s.FrameCount = n
	return s
}

func heroSeq(n int) config.Sequence {
	s := config.Hero()
	s.FrameCount = n
	return s
}

func manualPlayer(t *testing.T, seq config.Sequence, h *fakeHost, opts Options) *Player {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	p, err := New(ctx, seq, h, blockingLoader{}, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func ready(i, w, h int) frames.Result {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	return frames.Result{Index: i, Image: gg.ImageBufFromImage(img), Width: w, Height: h}
}

func failed(i int) frames.Result {
	return frames.Result{Index: i, Err: errors.New("404")}
}

func feed(p *Player, results ...frames.Result) {
	for _, r := range results {
		p.handleLoad(r)
	}
}

func feedAll(p *Player, w, h int) {
	for i := 0; i < p.Store().Len(); i++ {
		p.handleLoad(ready(i, w, h))
	}
}

func TestNewMissingElements(t *testing.T) {
	h := newFakeHost()
	delete(h.sections, "about")

	if _, err := New(context.Background(), aboutSeq(3), h, blockingLoader{}, Options{}); !errors.Is(err, ErrSectionMissing) {
		t.Errorf("error = %v, want ErrSectionMissing", err)
	}

	delete(h.canvases, "hero-sequence-canvas")
	if _, err := New(context.Background(), heroSeq(3), h, blockingLoader{}, Options{}); !errors.Is(err, ErrCanvasMissing) {
		t.Errorf("error = %v, want ErrCanvasMissing", err)
	}

	bad := heroSeq(0)
	if _, err := New(context.Background(), bad, newFakeHost(), blockingLoader{}, Options{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("error = %v, want config.ErrInvalid", err)
	}
}

func TestDocumentModeNeedsNoSection(t *testing.T) {
	h := newFakeHost()
	h.sections = nil
	manualPlayer(t, heroSeq(3), h, Options{})
}

func TestInitialLayout(t *testing.T) {
	h := newFakeHost()
	h.ratio = 2
	p := manualPlayer(t, heroSeq(4), h, Options{})

	st := p.State()
	if st.CurrentFrame != 0 || st.FirstFrameShown {
		t.Errorf("initial state = %+v", st)
	}
	if !st.RenderPending || len(h.frames) != 1 {
		t.Errorf("initial resize should request one render, pending=%v queued=%d", st.RenderPending, len(h.frames))
	}
	// Letterbox canvases prefer clientWidth and use the fallback ratio.
	w, ht := p.Canvas()
	if w != 960 || math.Abs(ht-540) > 1e-9 {
		t.Errorf("layout = %vx%v, want 960x540", w, ht)
	}

	// Nothing is loaded, so the scheduled paint is a no-op.
	h.flushFrames()
	if p.LastPainted() != -1 {
		t.Errorf("painted %d before any frame loaded", p.LastPainted())
	}
}

func TestSquareCanvasWidthFallback(t *testing.T) {
	h := newFakeHost()
	h.canvases["about-sequence-canvas"].bounding = 0
	p := manualPlayer(t, aboutSeq(2), h, Options{})

	w, ht := p.Canvas()
	if w != 900 || ht != 900 {
		t.Errorf("layout = %vx%v, want parent width 900 square", w, ht)
	}
}

func TestFullLoadGateOutOfOrder(t *testing.T) {
	h := newFakeHost()
	readies := 0
	p := manualPlayer(t, aboutSeq(4), h, Options{OnReady: func() { readies++ }})

	feed(p, ready(3, 10, 10), failed(2), ready(1, 10, 10))
	if p.Ready() || len(h.scrolls) != 0 || len(h.resizes) != 0 {
		t.Fatalf("listeners attached before every frame resolved")
	}
	if p.Stats().Loaded != 3 {
		t.Errorf("Loaded = %d, want 3", p.Stats().Loaded)
	}

	feed(p, ready(0, 10, 10))
	if !p.Ready() {
		t.Fatal("player not ready after final frame")
	}
	if len(h.scrolls) != 1 || len(h.resizes) != 1 {
		t.Errorf("listeners = %d scroll, %d resize, want 1 each", len(h.scrolls), len(h.resizes))
	}
	if readies != 1 {
		t.Errorf("OnReady called %d times", readies)
	}

	// Late duplicates change nothing.
	feed(p, ready(2, 10, 10), ready(0, 10, 10))
	if len(h.scrolls) != 1 || readies != 1 {
		t.Error("gate fired twice")
	}
	if !p.Store().Slot(2).Failed() {
		t.Error("failed slot revived")
	}
}

func TestFirstFrameShownEarly(t *testing.T) {
	h := newFakeHost()
	var painted []int
	p := manualPlayer(t, heroSeq(5), h, Options{OnPaint: func(f int) { painted = append(painted, f) }})

	feed(p, ready(2, 300, 100))
	if p.State().FirstFrameShown {
		t.Fatal("frame 2 must not count as the first frame")
	}

	feed(p, ready(0, 200, 100))
	st := p.State()
	if !st.FirstFrameShown {
		t.Fatal("first frame not shown after slot 0 loaded")
	}
	if st.CapturedAspect != 2 {
		t.Errorf("CapturedAspect = %v, want 2", st.CapturedAspect)
	}
	if len(painted) != 1 || painted[0] != 0 {
		t.Errorf("painted = %v, want [0]", painted)
	}
	if _, ht := p.Canvas(); ht != 480 {
		t.Errorf("canvas height = %v, want 960/2", ht)
	}
	if p.Ready() {
		t.Error("player ready with frames still pending")
	}

	// Later frames do not recapture the ratio.
	feed(p, ready(1, 400, 100), ready(3, 100, 100), ready(4, 100, 100))
	if p.State().CapturedAspect != 2 {
		t.Errorf("ratio recaptured: %v", p.State().CapturedAspect)
	}
}

func TestSlotZeroFailure(t *testing.T) {
	h := newFakeHost()
	p := manualPlayer(t, heroSeq(4), h, Options{})

	feed(p, failed(0), ready(1, 100, 100), ready(2, 100, 100), ready(3, 100, 100))

	st := p.State()
	if st.CapturedAspect != 16.0/9.0 {
		t.Errorf("CapturedAspect = %v, want fallback 16/9", st.CapturedAspect)
	}
	if st.FirstFrameShown {
		t.Error("first frame marked shown although it failed")
	}
	if !p.Ready() {
		t.Error("a failed frame must not block readiness")
	}
	if p.Render(0) {
		t.Error("Render(0) should be a no-op")
	}
	if !p.Render(1) {
		t.Error("Render(1) should paint")
	}
	if p.LastPainted() != 1 {
		t.Errorf("LastPainted = %d", p.LastPainted())
	}
	if s := p.Stats(); s.Failed != 1 || s.Loaded != 4 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRenderOutOfRange(t *testing.T) {
	p := manualPlayer(t, heroSeq(2), newFakeHost(), Options{})
	feedAll(p, 16, 9)
	if p.Render(-1) || p.Render(2) {
		t.Error("out of range render should be a no-op")
	}
}

func TestScrollIdempotent(t *testing.T) {
	h := newFakeHost()
	h.viewport.ScrollY = 1600
	p := manualPlayer(t, heroSeq(10), h, Options{})
	feedAll(p, 160, 90)
	h.flushFrames()

	if got := p.State().CurrentFrame; got != 4 {
		t.Fatalf("CurrentFrame = %d, want 4", got)
	}
	paints := p.Stats().Paints

	h.fireScroll()
	h.fireScroll()
	if len(h.frames) != 0 {
		t.Errorf("unchanged geometry queued %d renders", len(h.frames))
	}

	h.viewport.ScrollY = 3200
	h.fireScroll()
	h.fireScroll()
	if len(h.frames) != 1 {
		t.Fatalf("queued %d renders, want 1", len(h.frames))
	}
	h.flushFrames()

	if got := p.Stats().Paints; got != paints+1 {
		t.Errorf("paints = %d, want %d", got, paints+1)
	}
	if p.LastPainted() != 9 {
		t.Errorf("LastPainted = %d, want 9", p.LastPainted())
	}
}

func TestLastWriteWins(t *testing.T) {
	h := newFakeHost()
	p := manualPlayer(t, heroSeq(33), h, Options{})
	feedAll(p, 16, 9)
	h.flushFrames()

	for _, y := range []float64{100, 800, 1600, 2400, 300} {
		h.viewport.ScrollY = y
		h.fireScroll()
	}
	if len(h.frames) != 1 {
		t.Fatalf("queued %d renders, want 1", len(h.frames))
	}

	want := scroll.DocumentTarget(300, 4000, 800, 33)
	h.flushFrames()
	if p.LastPainted() != want {
		t.Errorf("painted %d, want final target %d", p.LastPainted(), want)
	}
}

func TestSectionScenario(t *testing.T) {
	h := newFakeHost()
	h.sections["about"].rect = scroll.Rect{Top: 0, Bottom: 800, Height: 800}
	p := manualPlayer(t, aboutSeq(3), h, Options{})
	feedAll(p, 50, 50)

	if got := p.State().CurrentFrame; got != 1 {
		t.Errorf("CurrentFrame = %d, want 1", got)
	}
}

func TestSectionOutsideViewport(t *testing.T) {
	h := newFakeHost()
	p := manualPlayer(t, aboutSeq(151), h, Options{})
	feedAll(p, 50, 50)

	// Default rect sits below the viewport.
	if got := p.State().CurrentFrame; got != 150 {
		t.Errorf("below viewport frame = %d, want 150", got)
	}

	h.sections["about"].rect = scroll.Rect{Top: -2000, Bottom: -1200, Height: 800}
	h.fireScroll()
	if got := p.State().CurrentFrame; got != 0 {
		t.Errorf("scrolled past frame = %d, want 0", got)
	}
}

func TestDocumentFitsViewport(t *testing.T) {
	h := newFakeHost()
	h.viewport.DocumentHeight = 600
	p := manualPlayer(t, heroSeq(20), h, Options{})
	feedAll(p, 16, 9)

	for _, y := range []float64{0, 50, 600, 1e6} {
		h.viewport.ScrollY = y
		h.fireScroll()
		if got := p.State().CurrentFrame; got != 0 {
			t.Errorf("scrollY %v: frame %d, want 0", y, got)
		}
	}
}

func TestFrameStaysInRange(t *testing.T) {
	values := []float64{math.Inf(-1), -1e12, -1, 0, 1, 799, 800, 4000, 1e12, math.Inf(1), math.NaN()}

	h := newFakeHost()
	doc := manualPlayer(t, heroSeq(7), h, Options{})
	sec := manualPlayer(t, aboutSeq(7), h, Options{})
	feedAll(doc, 16, 9)
	feedAll(sec, 16, 16)

	for _, a := range values {
		for _, b := range values {
			h.viewport.ScrollY = a
			h.viewport.DocumentHeight = b
			h.viewport.Height = math.Abs(b - a)
			h.sections["about"].rect = scroll.Rect{Top: a, Bottom: b, Height: b - a}
			h.fireScroll()
			h.flushFrames()

			for _, p := range []*Player{doc, sec} {
				if f := p.State().CurrentFrame; f < 0 || f >= 7 {
					t.Fatalf("%s: frame %d out of range for a=%v b=%v", p.Sequence().Name, f, a, b)
				}
			}
		}
	}
}

func TestResizeRelayoutsAndReevaluates(t *testing.T) {
	h := newFakeHost()
	p := manualPlayer(t, heroSeq(10), h, Options{})
	feedAll(p, 200, 100)
	h.flushFrames()

	h.canvases["hero-sequence-canvas"].client = 500
	h.ratio = 3
	h.viewport.ScrollY = 3200
	h.fireResize()

	w, ht := p.Canvas()
	if w != 500 || ht != 250 {
		t.Errorf("layout = %vx%v, want 500x250", w, ht)
	}
	if bw, bh := p.pres.BackingSize(); bw != 1500 || bh != 750 {
		t.Errorf("backing = %dx%d, want 1500x750", bw, bh)
	}
	if got := p.State().CurrentFrame; got != 9 {
		t.Errorf("resize did not re-evaluate scroll: frame %d", got)
	}
	if n := h.flushFrames(); n != 1 {
		t.Errorf("resize queued %d renders, want 1", n)
	}
	if p.LastPainted() != 9 {
		t.Errorf("LastPainted = %d", p.LastPainted())
	}
}

func TestResizeOverFailedFrameChangesBacking(t *testing.T) {
	h := newFakeHost()
	p := manualPlayer(t, heroSeq(4), h, Options{})
	feed(p, failed(0), ready(1, 100, 100), ready(2, 100, 100), ready(3, 100, 100))
	h.flushFrames()

	paints, last := p.Stats().Paints, p.LastPainted()
	bw, bh := p.BackingSize()

	h.canvases["hero-sequence-canvas"].client = 500
	h.fireResize()
	h.flushFrames()

	if got := p.Stats().Paints; got != paints {
		t.Errorf("Paints = %d, want %d: failed frame painted", got, paints)
	}
	if p.LastPainted() != last {
		t.Errorf("LastPainted = %d, want %d", p.LastPainted(), last)
	}
	if w, ht := p.BackingSize(); w == bw && ht == bh {
		t.Errorf("backing stayed %dx%d after resize", w, ht)
	}
}

func TestPreloadThroughHost(t *testing.T) {
	h := newFakeHost()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := &sizedLoader{w: 64, h: 36, fail: []string{"hero_00003"}}
	p, err := New(ctx, heroSeq(6), h, loader, Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}

	h.runTasks(t, 6)
	if !p.Ready() {
		t.Fatal("player not ready after all deliveries")
	}
	select {
	case <-p.Loading():
	case <-time.After(5 * time.Second):
		t.Fatal("Loading() never closed")
	}

	s := p.Stats()
	if s.Loaded != 6 || s.Failed != 1 {
		t.Errorf("stats = %+v", s)
	}
	// hero starts at index 1, so frame 2 maps to hero_00003.
	if !p.Store().Slot(2).Failed() {
		t.Errorf("slot 2 status = %v", p.Store().Slot(2).Status())
	}
	if st := p.State(); st.CapturedAspect != 64.0/36.0 || !st.FirstFrameShown {
		t.Errorf("state = %+v", st)
	}
}

func TestClose(t *testing.T) {
	h := newFakeHost()
	p := manualPlayer(t, heroSeq(2), h, Options{})
	feedAll(p, 16, 9)
	p.Close()

	evals := p.Stats().Evaluations
	h.fireScroll()
	if p.Stats().Evaluations != evals {
		t.Error("scroll listener still attached after Close")
	}
}
