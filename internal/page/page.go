// Package page is a headless document that hosts players: a scrollable
// viewport, laid-out elements, a task queue and an animation-frame queue.
package page

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/ivlev/scrollseq/internal/config"
	"github.com/ivlev/scrollseq/internal/player"
	"github.com/ivlev/scrollseq/internal/scroll"
)

// Page implements player.Host. Dispatch is safe from any goroutine; every
// other method belongs to the goroutine that calls Tick or Run.
type Page struct {
	viewport player.Viewport
	ratio    float64
	canvases map[string]*Canvas
	sections map[string]*Section

	scrolls []*listener
	resizes []*listener
	frames  []func()

	mu     sync.Mutex
	tasks  []func()
	notify chan struct{}
}

// New lays out cfg. Missing viewport sizes fall back to the default page.
func New(cfg config.Page) *Page {
	def := config.DefaultPage()
	if cfg.ViewportWidth <= 0 {
		cfg.ViewportWidth = def.ViewportWidth
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = def.ViewportHeight
	}
	if cfg.DevicePixelRatio <= 0 {
		cfg.DevicePixelRatio = 1
	}

	p := &Page{
		viewport: player.Viewport{
			Width:          cfg.ViewportWidth,
			Height:         cfg.ViewportHeight,
			DocumentHeight: cfg.DocumentHeight,
		},
		ratio:    cfg.DevicePixelRatio,
		canvases: make(map[string]*Canvas, len(cfg.Canvases)),
		sections: make(map[string]*Section, len(cfg.Sections)),
		notify:   make(chan struct{}, 1),
	}
	for _, c := range cfg.Canvases {
		p.canvases[c.ID] = &Canvas{width: c.Width, client: c.ClientWidth, parent: c.ParentWidth}
	}
	for _, s := range cfg.Sections {
		p.sections[s.ID] = &Section{page: p, top: s.Top, height: s.Height}
	}
	return p
}

// Canvas is a canvas element. Its widths follow the viewport width.
type Canvas struct {
	width, client, parent float64
}

func (c *Canvas) BoundingWidth() float64 { return c.width }

// ClientWidth is the explicit client width, or the bounding width when none was laid out.
func (c *Canvas) ClientWidth() float64 {
	if c.client > 0 {
		return c.client
	}
	return c.width
}

func (c *Canvas) ParentClientWidth() float64 { return c.parent }

func (c *Canvas) scale(f float64) {
	c.width *= f
	c.client *= f
	c.parent *= f
}

// Section is a block of the document at a fixed document offset.
type Section struct {
	page        *Page
	top, height float64
}

// BoundingRect is the section's box relative to the top of the viewport.
func (s *Section) BoundingRect() scroll.Rect {
	top := s.top - s.page.viewport.ScrollY
	return scroll.Rect{Top: top, Bottom: top + s.height, Height: s.height}
}

type listener struct {
	fn        func()
	cancelled bool
}

func (l *listener) Cancel() { l.cancelled = true }

func (p *Page) Viewport() player.Viewport { return p.viewport }
func (p *Page) DevicePixelRatio() float64 { return p.ratio }

func (p *Page) Canvas(id string) (player.Canvas, bool) {
	c, ok := p.canvases[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (p *Page) Section(id string) (player.Section, bool) {
	s, ok := p.sections[id]
	if !ok {
		return nil, false
	}
	return s, true
}

func (p *Page) OnScroll(fn func()) player.Subscription {
	l := &listener{fn: fn}
	p.scrolls = append(p.scrolls, l)
	return l
}

func (p *Page) OnResize(fn func()) player.Subscription {
	l := &listener{fn: fn}
	p.resizes = append(p.resizes, l)
	return l
}

// RequestAnimationFrame queues fn for the next Tick.
func (p *Page) RequestAnimationFrame(fn func()) {
	p.frames = append(p.frames, fn)
}

// Dispatch queues fn to run on the page goroutine.
func (p *Page) Dispatch(fn func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, fn)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// MaxScroll is the largest reachable scroll offset.
func (p *Page) MaxScroll() float64 {
	return math.Max(0, p.viewport.DocumentHeight-p.viewport.Height)
}

// ScrollTo moves the viewport to y, clamped to the scrollable range, and
// fires the scroll listeners when the offset changed.
func (p *Page) ScrollTo(y float64) {
	if math.IsNaN(y) {
		y = 0
	}
	y = math.Min(math.Max(y, 0), p.MaxScroll())
	if y == p.viewport.ScrollY {
		return
	}
	p.viewport.ScrollY = y
	fire(&p.scrolls)
}

// ScrollBy scrolls relative to the current offset.
func (p *Page) ScrollBy(dy float64) { p.ScrollTo(p.viewport.ScrollY + dy) }

// SetViewport resizes the viewport and fires the resize listeners. Canvas
// widths scale with the viewport width; sections keep their document geometry.
func (p *Page) SetViewport(width, height float64) {
	if !(width > 0) || !(height > 0) {
		return
	}
	if width == p.viewport.Width && height == p.viewport.Height {
		return
	}

	if p.viewport.Width > 0 {
		f := width / p.viewport.Width
		for _, c := range p.canvases {
			c.scale(f)
		}
	}
	p.viewport.Width, p.viewport.Height = width, height

	if p.viewport.ScrollY > p.MaxScroll() {
		p.viewport.ScrollY = p.MaxScroll()
		fire(&p.scrolls)
	}
	fire(&p.resizes)
}

// SetDevicePixelRatio changes the pixel ratio, which browsers report as a resize.
func (p *Page) SetDevicePixelRatio(ratio float64) {
	if !(ratio > 0) || ratio == p.ratio {
		return
	}
	p.ratio = ratio
	fire(&p.resizes)
}

func fire(ls *[]*listener) {
	live := (*ls)[:0]
	for _, l := range *ls {
		if !l.cancelled {
			live = append(live, l)
		}
	}
	*ls = live

	for _, l := range append([]*listener(nil), live...) {
		if !l.cancelled {
			l.fn()
		}
	}
}

// RunTasks runs every dispatched task queued so far and returns how many ran.
func (p *Page) RunTasks() int {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Tick is one display refresh: queued tasks run, then the animation-frame
// callbacks registered before the tick. Callbacks registered while flushing
// wait for the next tick. It returns the number of callbacks run.
func (p *Page) Tick() int {
	p.RunTasks()

	frames := p.frames
	p.frames = nil
	for _, fn := range frames {
		fn()
	}
	return len(frames)
}

// Idle reports whether no task and no animation frame is queued.
func (p *Page) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks) == 0 && len(p.frames) == 0
}

// Wait runs dispatched tasks as they arrive until done reports true or ctx ends.
func (p *Page) Wait(ctx context.Context, done func() bool) error {
	for {
		p.RunTasks()
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.notify:
		}
	}
}

// Run ticks the page every refresh interval and runs dispatched tasks as they
// arrive, until ctx ends.
func (p *Page) Run(ctx context.Context, refresh time.Duration) error {
	if refresh <= 0 {
		refresh = time.Second / 60
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.notify:
			p.RunTasks()
		case <-ticker.C:
			p.Tick()
		}
	}
}
