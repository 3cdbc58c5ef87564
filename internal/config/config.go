package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// FitMode selects how a frame is placed on its canvas.
type FitMode string

const (
	// FitSquare forces a 1:1 canvas and stretches each frame over all of it.
	FitSquare FitMode = "fill-square"
	// FitLetterbox sizes the canvas from the captured aspect ratio and centres
	// each frame inside it without distortion.
	FitLetterbox FitMode = "letterbox-preserve-aspect"
)

// ProgressMode selects which scroll geometry drives the frame index.
type ProgressMode string

const (
	// ProgressSection maps the passage of one section through the viewport.
	ProgressSection ProgressMode = "section"
	// ProgressDocument maps the scroll offset of the whole document.
	ProgressDocument ProgressMode = "document"
)

// padWidth is the zero-padded width of the numeric suffix in frame file names.
const padWidth = 5

const (
	squareAspect     = 1.0
	widescreenAspect = 16.0 / 9.0
)

// Sequence describes one frame sequence bound to one canvas.
type Sequence struct {
	Name          string       `yaml:"name"`
	FrameCount    int          `yaml:"frame_count"`
	StartIndex    int          `yaml:"start_index"`
	BasePath      string       `yaml:"base_path"`
	Prefix        string       `yaml:"prefix"`
	Extension     string       `yaml:"extension"`
	Fit           FitMode      `yaml:"fit"`
	Progress      ProgressMode `yaml:"progress"`
	CanvasID      string       `yaml:"canvas_id"`
	SectionID     string       `yaml:"section_id"`
	DefaultAspect float64      `yaml:"default_aspect"`
}

// FramePath returns the asset path of logical frame i.
func (s Sequence) FramePath(i int) string {
	return fmt.Sprintf("%s%s%0*d%s", s.BasePath, s.Prefix, padWidth, s.StartIndex+i, s.Extension)
}

// FallbackAspect is the width/height ratio used until a real frame has been decoded.
func (s Sequence) FallbackAspect() float64 {
	if s.DefaultAspect > 0 {
		return s.DefaultAspect
	}
	if s.Fit == FitLetterbox {
		return widescreenAspect
	}
	return squareAspect
}

// Validate reports the first problem found in s.
func (s Sequence) Validate() error {
	if s.FrameCount <= 0 {
		return fmt.Errorf("%w: sequence %q: frame_count must be positive, got %d", ErrInvalid, s.Name, s.FrameCount)
	}
	if s.StartIndex < 0 {
		return fmt.Errorf("%w: sequence %q: start_index must be >= 0, got %d", ErrInvalid, s.Name, s.StartIndex)
	}
	switch s.Fit {
	case FitSquare, FitLetterbox:
	default:
		return fmt.Errorf("%w: sequence %q: unknown fit %q", ErrInvalid, s.Name, s.Fit)
	}
	switch s.Progress {
	case ProgressDocument:
	case ProgressSection:
		if s.SectionID == "" {
			return fmt.Errorf("%w: sequence %q: section progress needs section_id", ErrInvalid, s.Name)
		}
	default:
		return fmt.Errorf("%w: sequence %q: unknown progress %q", ErrInvalid, s.Name, s.Progress)
	}
	if s.CanvasID == "" {
		return fmt.Errorf("%w: sequence %q: canvas_id is required", ErrInvalid, s.Name)
	}
	if s.DefaultAspect < 0 {
		return fmt.Errorf("%w: sequence %q: default_aspect must not be negative", ErrInvalid, s.Name)
	}
	return nil
}

// CanvasElement is a canvas laid out on the simulated page.
type CanvasElement struct {
	ID string `yaml:"id"`
	// Width is the element's bounding box width in layout pixels.
	Width float64 `yaml:"width"`
	// ClientWidth overrides Width for the clientWidth query when non-zero.
	ClientWidth float64 `yaml:"client_width"`
	// ParentWidth is the parent's clientWidth.
	ParentWidth float64 `yaml:"parent_width"`
}

// SectionElement is a section laid out on the simulated page, in document coordinates.
type SectionElement struct {
	ID     string  `yaml:"id"`
	Top    float64 `yaml:"top"`
	Height float64 `yaml:"height"`
}

// Page is the geometry of the page hosting the sequences.
type Page struct {
	ViewportWidth    float64          `yaml:"viewport_width"`
	ViewportHeight   float64          `yaml:"viewport_height"`
	DocumentHeight   float64          `yaml:"document_height"`
	DevicePixelRatio float64          `yaml:"device_pixel_ratio"`
	Canvases         []CanvasElement  `yaml:"canvases"`
	Sections         []SectionElement `yaml:"sections"`
}

// File is the on-disk configuration of the scrub tool and the viewer.
type File struct {
	AssetsRoot  string     `yaml:"assets_root"`
	Workers     int        `yaml:"workers"`
	DPI         int        `yaml:"dpi"`
	FPS         int        `yaml:"fps"`
	Background  string     `yaml:"background"`
	OutputDir   string     `yaml:"output_dir"`
	Script      string     `yaml:"script"`
	ShowStats   bool       `yaml:"show_stats"`
	LoadTimeout float64    `yaml:"load_timeout"` // seconds
	Page        Page       `yaml:"page"`
	Sequences   []Sequence `yaml:"sequences"`
}

// Overrides holds the settings that may come from the environment.
type Overrides struct {
	AssetsRoot string `env:"ASSETS_ROOT"`
	Workers    int    `env:"WORKERS"`
	OutputDir  string `env:"OUTPUT_DIR"`
	Script     string `env:"SCRIPT"`
	ShowStats  *bool  `env:"SHOW_STATS"`
}

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "SCROLLSEQ_"

// Load reads a YAML configuration file, fills defaults and validates it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	f.SetDefaults()

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Write stores f as YAML.
func Write(f *File, path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns a configuration with both built-in sequences on the default page.
func Default() *File {
	f := &File{
		Page:      DefaultPage(),
		Sequences: []Sequence{AboutLogo(), Hero()},
	}
	f.SetDefaults()
	return f
}

// SetDefaults fills zero values.
func (f *File) SetDefaults() {
	if f.FPS <= 0 {
		f.FPS = 30
	}
	if f.DPI <= 0 {
		f.DPI = 150
	}
	if f.Background == "" {
		f.Background = "#000000"
	}
	if f.OutputDir == "" {
		f.OutputDir = "output"
	}
	if f.LoadTimeout <= 0 {
		f.LoadTimeout = 60
	}
	if f.Page.ViewportWidth <= 0 && f.Page.ViewportHeight <= 0 && f.Page.DocumentHeight <= 0 {
		f.Page = DefaultPage()
	}
	if f.Page.DevicePixelRatio <= 0 {
		f.Page.DevicePixelRatio = 1
	}
	for i := range f.Sequences {
		if f.Sequences[i].Name == "" {
			f.Sequences[i].Name = fmt.Sprintf("sequence_%d", i+1)
		}
	}
}

// Validate checks the page and every sequence.
func (f *File) Validate() error {
	if f.Page.ViewportWidth <= 0 || f.Page.ViewportHeight <= 0 {
		return fmt.Errorf("%w: viewport must be positive, got %.0fx%.0f", ErrInvalid, f.Page.ViewportWidth, f.Page.ViewportHeight)
	}
	if f.Page.DocumentHeight < 0 {
		return fmt.Errorf("%w: document_height must not be negative", ErrInvalid)
	}
	if f.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if len(f.Sequences) == 0 {
		return fmt.Errorf("%w: no sequences configured", ErrInvalid)
	}
	seen := make(map[string]bool, len(f.Sequences))
	for _, s := range f.Sequences {
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate sequence name %q", ErrInvalid, s.Name)
		}
		seen[s.Name] = true
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays SCROLLSEQ_* variables from environ onto f.
// A nil environ reads the process environment.
func (f *File) ApplyEnv(environ map[string]string) error {
	var o Overrides
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if o.AssetsRoot != "" {
		f.AssetsRoot = o.AssetsRoot
	}
	if o.Workers > 0 {
		f.Workers = o.Workers
	}
	if o.OutputDir != "" {
		f.OutputDir = o.OutputDir
	}
	if o.Script != "" {
		f.Script = o.Script
	}
	if o.ShowStats != nil {
		f.ShowStats = *o.ShowStats
	}
	return nil
}

// Resolved returns the sequences with AssetsRoot prepended to relative base paths.
func (f *File) Resolved() []Sequence {
	out := make([]Sequence, len(f.Sequences))
	copy(out, f.Sequences)
	if f.AssetsRoot == "" {
		return out
	}
	for i := range out {
		out[i].BasePath = JoinBase(f.AssetsRoot, out[i].BasePath)
	}
	return out
}

// JoinBase joins root and base by plain concatenation with a single slash, so a
// trailing slash on base survives. Absolute paths and URLs in base are kept as is.
func JoinBase(root, base string) string {
	if root == "" || strings.HasPrefix(base, "/") || isURL(base) {
		return base
	}
	return strings.TrimSuffix(root, "/") + "/" + base
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
