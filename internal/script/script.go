// Package script describes scripted scroll motion: keyframed document offsets
// over time, read from and written to YAML.
package script

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid scroll script")

// Script is a timed scroll path through a document.
type Script struct {
	Version   string     `yaml:"version"`
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Keyframe pins the scroll offset at a moment.
type Keyframe struct {
	Time   float64 `yaml:"time"`           // seconds from start
	Scroll float64 `yaml:"scroll"`         // document scroll offset in layout pixels
	Ease   string  `yaml:"ease,omitempty"` // curve used to reach this keyframe
}

// Duration is the time of the last keyframe.
func (s *Script) Duration() float64 {
	if len(s.Keyframes) == 0 {
		return 0
	}
	return s.Keyframes[len(s.Keyframes)-1].Time
}

// Steps is the number of samples needed to cover the script at fps, both ends included.
func (s *Script) Steps(fps int) int {
	if fps <= 0 {
		return 0
	}
	return int(s.Duration()*float64(fps)) + 1
}

// At is the scroll offset at time t.
func (s *Script) At(t float64) float64 { return Position(s.Keyframes, t) }

// Validate checks that keyframes exist, run forward in time and name known curves.
func (s *Script) Validate() error {
	if len(s.Keyframes) == 0 {
		return fmt.Errorf("%w: no keyframes", ErrInvalid)
	}
	prev := 0.0
	for i, kf := range s.Keyframes {
		if kf.Time < prev {
			return fmt.Errorf("%w: keyframe %d at %.3fs goes back in time", ErrInvalid, i, kf.Time)
		}
		prev = kf.Time
		if _, ok := curves[kf.Ease]; !ok {
			return fmt.Errorf("%w: keyframe %d: unknown ease %q", ErrInvalid, i, kf.Ease)
		}
	}
	return nil
}

// Write writes a script to a YAML file
func Write(s *Script, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads and validates a script from a YAML file
func Read(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &s, nil
}

// Linear scrolls from one offset to another over duration seconds with
// steps evenly spaced keyframes after the start.
func Linear(from, to, duration float64, steps int) *Script {
	if steps < 1 {
		steps = 1
	}
	s := &Script{
		Version:   "1.0",
		Keyframes: []Keyframe{{Time: 0, Scroll: from}},
	}
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		s.Keyframes = append(s.Keyframes, Keyframe{
			Time:   duration * f,
			Scroll: from + (to-from)*f,
			Ease:   EaseLinear,
		})
	}
	return s
}

// Sweep scrolls to the bottom and back, pausing at each end.
func Sweep(maxScroll, duration float64) *Script {
	leg := duration * 0.4
	hold := duration * 0.1
	return &Script{
		Version: "1.0",
		Keyframes: []Keyframe{
			{Time: 0, Scroll: 0},
			{Time: leg, Scroll: maxScroll},
			{Time: leg + hold, Scroll: maxScroll, Ease: EaseLinear},
			{Time: 2*leg + hold, Scroll: 0},
			{Time: duration, Scroll: 0, Ease: EaseLinear},
		},
	}
}
