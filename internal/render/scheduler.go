// Package render schedules repaints and draws frames onto a canvas surface.
package render

// Refresher runs a callback at the next display refresh.
type Refresher interface {
	RequestAnimationFrame(fn func())
}

// Scheduler collapses repaint requests so at most one paint runs per refresh.
// The paint callback must read the frame to draw when it runs, not when the
// request was made.
type Scheduler struct {
	refresh Refresher
	paint   func()
	pending bool
}

// NewScheduler returns a scheduler that calls paint on the refresher's next frame.
func NewScheduler(r Refresher, paint func()) *Scheduler {
	return &Scheduler{refresh: r, paint: paint}
}

// Request schedules a paint unless one is already pending.
// It reports whether a new refresh callback was registered.
func (s *Scheduler) Request() bool {
	if s.pending {
		return false
	}
	s.pending = true
	s.refresh.RequestAnimationFrame(s.run)
	return true
}

// Pending reports whether a paint is scheduled but has not run yet.
func (s *Scheduler) Pending() bool { return s.pending }

func (s *Scheduler) run() {
	s.pending = false
	s.paint()
}
