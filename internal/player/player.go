// Package player drives a scroll-synchronised frame sequence on a canvas.
package player

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ivlev/scrollseq/internal/config"
	"github.com/ivlev/scrollseq/internal/frames"
	"github.com/ivlev/scrollseq/internal/render"
	"github.com/ivlev/scrollseq/internal/scroll"
	"github.com/ivlev/scrollseq/internal/source"
)

var (
	ErrCanvasMissing  = errors.New("canvas element not found")
	ErrSectionMissing = errors.New("section element not found")
)

// Options tunes a player.
type Options struct {
	// Workers bounds concurrent frame loads; zero loads every frame at once.
	Workers int
	// OnPaint is called after every successful paint with the painted index.
	OnPaint func(frame int)
	// OnReady is called once, after every frame resolved and listeners are attached.
	OnReady func()
}

// State is the playback state of a player.
type State struct {
	CurrentFrame    int
	RenderPending   bool
	FirstFrameShown bool
	CapturedAspect  float64
}

// Stats counts what a player has done so far.
type Stats struct {
	Loaded      int
	Failed      int
	Paints      int
	Skipped     int
	Evaluations int
	Changes     int
}

// Player owns one sequence: its frames, its playback state and its canvas.
// All methods must be called on the host's event thread.
type Player struct {
	seq     config.Sequence
	host    Host
	opts    Options
	canvas  Canvas
	section Section

	store *frames.Store
	sched *render.Scheduler
	pres  *render.Presenter

	current    int
	firstShown bool
	aspect     float64
	steady     bool
	painted    int

	subs  []Subscription
	done  <-chan struct{}
	stats Stats
}

// New binds seq to its host elements, lays out the canvas and starts loading
// every frame. A missing canvas or section yields ErrCanvasMissing or
// ErrSectionMissing; hosts treat both as the sequence being absent.
func New(ctx context.Context, seq config.Sequence, host Host, loader source.Loader, opts Options) (*Player, error) {
	if err := seq.Validate(); err != nil {
		return nil, err
	}

	canvas, ok := host.Canvas(seq.CanvasID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCanvasMissing, seq.CanvasID)
	}

	var section Section
	if seq.Progress == config.ProgressSection {
		section, ok = host.Section(seq.SectionID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSectionMissing, seq.SectionID)
		}
	}

	p := &Player{
		seq:     seq,
		host:    host,
		opts:    opts,
		canvas:  canvas,
		section: section,
		store:   frames.NewStore(seq),
		pres:    render.NewPresenter(seq.Fit),
		aspect:  seq.FallbackAspect(),
		painted: -1,
	}
	p.sched = render.NewScheduler(host, func() { p.Render(p.current) })

	p.Resize()

	p.done = frames.Preload(ctx, p.store.Paths(), loader, opts.Workers, func(r frames.Result) {
		host.Dispatch(func() { p.handleLoad(r) })
	})
	return p, nil
}

func (p *Player) handleLoad(r frames.Result) {
	complete := p.store.Resolve(r)
	if r.Err != nil {
		log.Printf("[!] %s: frame %d: %v", p.seq.Name, r.Index, r.Err)
	}

	if !p.firstShown {
		if first := p.store.Slot(0); first != nil && first.Ready() {
			if aspect, ok := first.Aspect(); ok {
				p.aspect = aspect
			}
			p.firstShown = true
			p.Resize()
			p.Render(0)
		}
	}

	if !complete {
		return
	}

	p.Resize()
	p.Render(p.current)

	// Listeners go on only now: scroll handling assumes every frame was attempted.
	p.subs = append(p.subs,
		p.host.OnScroll(func() { p.UpdateFromScroll() }),
		p.host.OnResize(p.handleResize),
	)
	p.steady = true
	p.UpdateFromScroll()

	if p.opts.OnReady != nil {
		p.opts.OnReady()
	}
}

func (p *Player) handleResize() {
	p.Resize()
	p.UpdateFromScroll()
}

// Resize re-lays out the canvas for the current element width and device
// pixel ratio, then requests a repaint.
func (p *Player) Resize() {
	p.pres.Resize(p.canvasWidth(), p.host.DevicePixelRatio(), p.aspect)
	p.sched.Request()
}

func (p *Player) canvasWidth() float64 {
	if p.seq.Fit == config.FitLetterbox {
		return firstPositive(p.canvas.ClientWidth(), p.canvas.BoundingWidth(), p.canvas.ParentClientWidth())
	}
	return firstPositive(p.canvas.BoundingWidth(), p.canvas.ParentClientWidth())
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

// Target is the frame the current scroll geometry maps to.
func (p *Player) Target() int {
	n := p.store.Len()
	vp := p.host.Viewport()
	if p.seq.Progress == config.ProgressSection {
		return scroll.SectionTarget(p.section.BoundingRect(), vp.Height, n)
	}
	return scroll.DocumentTarget(vp.ScrollY, vp.DocumentHeight, vp.Height, n)
}

// UpdateFromScroll moves to the target frame and requests a repaint when the
// target changed. It reports whether the frame changed.
func (p *Player) UpdateFromScroll() bool {
	p.stats.Evaluations++
	target := p.Target()
	if target == p.current {
		return false
	}
	p.current = target
	p.stats.Changes++
	p.sched.Request()
	return true
}

// Render draws frame i now. It is a no-op for frames that are not loaded.
func (p *Player) Render(i int) bool {
	slot := p.store.Slot(i)
	if slot == nil || !slot.Ready() {
		p.stats.Skipped++
		return false
	}
	if !p.pres.Draw(slot.Image, slot.Width, slot.Height, p.aspect) {
		p.stats.Skipped++
		return false
	}

	p.painted = i
	p.stats.Paints++
	if p.opts.OnPaint != nil {
		p.opts.OnPaint(i)
	}
	return true
}

// State returns a copy of the playback state.
func (p *Player) State() State {
	return State{
		CurrentFrame:    p.current,
		RenderPending:   p.sched.Pending(),
		FirstFrameShown: p.firstShown,
		CapturedAspect:  p.aspect,
	}
}

// Stats returns the player's counters.
func (p *Player) Stats() Stats {
	s := p.stats
	s.Loaded = p.store.Loaded()
	s.Failed = p.store.Failures()
	return s
}

// Sequence is the configuration the player was built from.
func (p *Player) Sequence() config.Sequence { return p.seq }

// Store exposes the frame slots.
func (p *Player) Store() *frames.Store { return p.store }

// Ready reports whether every frame resolved and listeners are attached.
func (p *Player) Ready() bool { return p.steady }

// LastPainted is the index of the last frame drawn, or -1.
func (p *Player) LastPainted() int { return p.painted }

// Loading is closed once every load goroutine has delivered its result.
func (p *Player) Loading() <-chan struct{} { return p.done }

// Canvas returns the layout size of the canvas in layout pixels.
func (p *Player) Canvas() (width, height float64) { return p.pres.LayoutSize() }

// BackingSize is the canvas surface size in device pixels.
func (p *Player) BackingSize() (width, height int) { return p.pres.BackingSize() }

// Snapshot copies the canvas backing surface, or returns nil if it is empty.
func (p *Player) Snapshot() image.Image { return p.pres.Snapshot() }

// Close detaches the player's listeners.
func (p *Player) Close() {
	for _, s := range p.subs {
		s.Cancel()
	}
	p.subs = nil
}
