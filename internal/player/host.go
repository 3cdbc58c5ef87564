package player

import (
	"github.com/ivlev/scrollseq/internal/render"
	"github.com/ivlev/scrollseq/internal/scroll"
)

// Viewport is the visible window onto the document.
type Viewport struct {
	Width          float64
	Height         float64
	ScrollY        float64
	DocumentHeight float64
}

// Canvas is the layout box of the element a sequence paints into.
type Canvas interface {
	BoundingWidth() float64
	ClientWidth() float64
	ParentClientWidth() float64
}

// Section is an element whose passage through the viewport drives a sequence.
type Section interface {
	BoundingRect() scroll.Rect
}

// Subscription is an event listener registration.
type Subscription interface {
	Cancel()
}

// Host provides the platform services a player consumes. Every method except
// Dispatch is called from the host's event thread; Dispatch may be called
// from any goroutine and must run fn on that thread.
type Host interface {
	render.Refresher
	Viewport() Viewport
	DevicePixelRatio() float64
	Canvas(id string) (Canvas, bool)
	Section(id string) (Section, bool)
	OnScroll(fn func()) Subscription
	OnResize(fn func()) Subscription
	Dispatch(fn func())
}
