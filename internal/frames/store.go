// Package frames holds the decoded frames of one sequence and loads them.
package frames

import (
	"github.com/gogpu/gg"

	"github.com/ivlev/scrollseq/internal/config"
)

// Status is the load state of a slot.
type Status int

const (
	Pending Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Slot is the load state of one frame. A slot leaves Pending once and never returns.
type Slot struct {
	Path   string
	Image  *gg.ImageBuf
	Width  int
	Height int
	status Status
	err    error
}

func (s *Slot) Status() Status { return s.status }
func (s *Slot) Ready() bool    { return s.status == Ready }
func (s *Slot) Failed() bool   { return s.status == Failed }
func (s *Slot) Resolved() bool { return s.status != Pending }
func (s *Slot) Err() error     { return s.err }

// Aspect returns the natural width/height ratio of a ready slot.
func (s *Slot) Aspect() (float64, bool) {
	if s.status != Ready || s.Width <= 0 || s.Height <= 0 {
		return 0, false
	}
	return float64(s.Width) / float64(s.Height), true
}

// Result is the outcome of loading one frame.
type Result struct {
	Index  int
	Image  *gg.ImageBuf
	Width  int
	Height int
	Err    error
}

// Store is the fixed, index-addressed set of slots of one sequence.
// It is not safe for concurrent use; the owning event loop applies results.
type Store struct {
	slots  []Slot
	loaded int
}

// NewStore creates one pending slot per frame of seq.
func NewStore(seq config.Sequence) *Store {
	s := &Store{slots: make([]Slot, seq.FrameCount)}
	for i := range s.slots {
		s.slots[i].Path = seq.FramePath(i)
	}
	return s
}

// Len is the number of frames.
func (s *Store) Len() int { return len(s.slots) }

// Slot returns slot i, or nil when i is out of range.
func (s *Store) Slot(i int) *Slot {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	return &s.slots[i]
}

// Loaded counts the slots that left Pending, successfully or not.
func (s *Store) Loaded() int { return s.loaded }

// Failures counts the slots that failed to load.
func (s *Store) Failures() int {
	n := 0
	for i := range s.slots {
		if s.slots[i].status == Failed {
			n++
		}
	}
	return n
}

// Complete reports whether every slot is resolved.
func (s *Store) Complete() bool { return s.loaded == len(s.slots) }

// Paths lists the asset path of every frame in index order.
func (s *Store) Paths() []string {
	paths := make([]string, len(s.slots))
	for i := range s.slots {
		paths[i] = s.slots[i].Path
	}
	return paths
}

// Resolve applies r to its slot. It returns true only for the call that
// resolves the last pending slot. Results for unknown indexes or already
// resolved slots are ignored.
func (s *Store) Resolve(r Result) bool {
	slot := s.Slot(r.Index)
	if slot == nil || slot.status != Pending {
		return false
	}

	if r.Err != nil || r.Image == nil {
		slot.status = Failed
		slot.err = r.Err
	} else {
		slot.status = Ready
		slot.Image = r.Image
		slot.Width = r.Width
		slot.Height = r.Height
	}

	s.loaded++
	return s.loaded == len(s.slots)
}
