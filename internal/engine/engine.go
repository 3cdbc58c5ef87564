// Package engine scrubs configured sequences along a scroll script on a
// headless page and writes every newly painted frame to disk.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollseq/internal/config"
	"github.com/ivlev/scrollseq/internal/page"
	"github.com/ivlev/scrollseq/internal/player"
	"github.com/ivlev/scrollseq/internal/script"
	"github.com/ivlev/scrollseq/internal/source"
	"github.com/ivlev/scrollseq/internal/system"
)

// defaultDuration is the length of the sweep used when no script is given.
const defaultDuration = 6.0

type Project struct {
	Config  *config.File
	Script  *script.Script
	Sources source.Options
	Build   string

	Page    *page.Page
	Players []*player.Player

	background color.RGBA
	report     Report
}

// Report summarises one run.
type Report struct {
	LoadTime  time.Duration
	ScrubTime time.Duration
	Steps     int
	Paints    int
	Written   int
	Failed    int
	Files     []string
	Usage     system.Usage
}

func NewProject(cfg *config.File, sc *script.Script) (*Project, error) {
	bg, err := ParseBackground(cfg.Background)
	if err != nil {
		return nil, err
	}
	return &Project{
		Config:     cfg,
		Script:     sc,
		Sources:    source.Options{DPI: cfg.DPI},
		Page:       page.New(cfg.Page),
		background: bg,
	}, nil
}

// ParseBackground reads a #rrggbb colour.
func ParseBackground(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: background %q: %v", config.ErrInvalid, hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Report returns the statistics of the last Run.
func (p *Project) Report() Report { return p.report }

func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()
	p.report = Report{}

	if err := p.start(ctx); err != nil {
		return err
	}

	fmt.Println("--- [PROJECT: SCROLL SCRUB] ---")
	fmt.Printf("[*] Sequences: %d | Viewport: %.0fx%.0f @ %.2fx | Document: %.0fpx\n",
		len(p.Players), p.Config.Page.ViewportWidth, p.Config.Page.ViewportHeight,
		p.Page.DevicePixelRatio(), p.Config.Page.DocumentHeight)
	fmt.Println("-----------------------------")

	if err := p.waitLoaded(ctx); err != nil {
		return err
	}
	p.report.LoadTime = time.Since(startTime)

	for _, pl := range p.Players {
		s := pl.Stats()
		p.report.Failed += s.Failed
		fmt.Printf("[*] %s: %d frames loaded, %d failed\n", pl.Sequence().Name, s.Loaded-s.Failed, s.Failed)
	}

	scrubStart := time.Now()
	if err := p.scrub(ctx); err != nil {
		return err
	}
	p.report.ScrubTime = time.Since(scrubStart)

	for _, pl := range p.Players {
		p.report.Paints += pl.Stats().Paints
		pl.Close()
	}

	if usage, err := system.ReadUsage(); err == nil {
		p.report.Usage = usage
	} else {
		log.Printf("[!] Memory stats unavailable: %v", err)
	}

	if p.Config.ShowStats {
		p.printReport(time.Since(startTime))
	}

	fmt.Printf("[+++] Done! %d frames written to %s\n", p.report.Written, p.Config.OutputDir)
	return nil
}

// start creates one player per configured sequence. Sequences whose canvas
// or section is not on the page are skipped.
func (p *Project) start(ctx context.Context) error {
	for _, seq := range p.Config.Resolved() {
		loader, err := source.ForSequence(seq, p.Sources)
		if err != nil {
			return fmt.Errorf("sequence %s: %w", seq.Name, err)
		}

		pl, err := player.New(ctx, seq, p.Page, loader, player.Options{Workers: p.Config.Workers})
		if errors.Is(err, player.ErrCanvasMissing) || errors.Is(err, player.ErrSectionMissing) {
			log.Printf("[!] Sequence %s skipped: %v", seq.Name, err)
			continue
		}
		if err != nil {
			return fmt.Errorf("sequence %s: %w", seq.Name, err)
		}
		p.Players = append(p.Players, pl)
	}

	if len(p.Players) == 0 {
		return fmt.Errorf("no sequence could be placed on the page")
	}
	return nil
}

func (p *Project) waitLoaded(ctx context.Context) error {
	timeout := time.Duration(p.Config.LoadTimeout * float64(time.Second))
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.Page.Wait(loadCtx, func() bool {
		for _, pl := range p.Players {
			if !pl.Ready() {
				return false
			}
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("frames not loaded within %.0fs: %w", p.Config.LoadTimeout, err)
	}
	return nil
}

func (p *Project) scrub(ctx context.Context) error {
	sc := p.Script
	if sc == nil {
		sc = script.Sweep(p.Page.MaxScroll(), defaultDuration)
		fmt.Printf("[*] No script given, sweeping %.0fpx over %.0fs\n", p.Page.MaxScroll(), defaultDuration)
	}

	fps := p.Config.FPS
	steps := sc.Steps(fps)
	p.report.Steps = steps

	for _, pl := range p.Players {
		if err := os.MkdirAll(filepath.Join(p.Config.OutputDir, pl.Sequence().Name), 0755); err != nil {
			return err
		}
	}

	workers := p.Config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	last := make([]int, len(p.Players))
	for i := range last {
		last[i] = -1
	}

	// Settle the first paint before scrolling.
	p.Page.Tick()

	for step := 0; step < steps; step++ {
		// A failed write cancels gctx; report the write error, not the cancellation.
		if gctx.Err() != nil {
			if err := g.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		}

		p.Page.ScrollTo(sc.At(float64(step) / float64(fps)))
		p.Page.Tick()

		for i, pl := range p.Players {
			frame := pl.LastPainted()
			if frame < 0 || frame == last[i] {
				continue
			}
			last[i] = frame

			snap := pl.Snapshot()
			if snap == nil {
				continue
			}
			flat := p.flatten(snap)
			path := filepath.Join(p.Config.OutputDir, pl.Sequence().Name, fmt.Sprintf("%05d_f%04d.png", step, frame))
			p.report.Files = append(p.report.Files, path)

			g.Go(func() error {
				defer system.PutImage(flat)
				return writePNG(path, flat)
			})
		}

		if (step+1)%max(fps, 1) == 0 {
			fmt.Printf("[>] Scrubbed: %d/%d\n", step+1, steps)
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	p.report.Written = len(p.report.Files)
	return nil
}

// flatten composites a canvas snapshot over the background colour.
func (p *Project) flatten(snap image.Image) *image.RGBA {
	b := snap.Bounds()
	dst := system.GetImage(b)
	draw.Draw(dst, b, &image.Uniform{C: p.background}, image.Point{}, draw.Src)
	draw.Draw(dst, b, snap, b.Min, draw.Over)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func (p *Project) printReport(total time.Duration) {
	r := p.report
	fps := 0.0
	if r.ScrubTime > 0 {
		fps = float64(r.Steps) / r.ScrubTime.Seconds()
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Preload: %.2fs\n"+
			"Scrub: %.2fs (%d steps)\n"+
			"Paints: %d | Written: %d | Failed frames: %d\n"+
			"Effective FPS: %.2f\n"+
			"Memory: %s\n"+
			"----------------------------\n",
		p.Build, total.Seconds(), r.LoadTime.Seconds(), r.ScrubTime.Seconds(), r.Steps,
		r.Paints, r.Written, r.Failed, fps, r.Usage,
	)
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Sequences: %d | Steps: %d | Total: %.2fs | Preload: %.2fs | Scrub: %.2fs | FPS: %.2f | RSS: %.1fMiB\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Build,
		len(p.Players),
		r.Steps,
		total.Seconds(),
		r.LoadTime.Seconds(),
		r.ScrubTime.Seconds(),
		fps,
		system.MiB(r.Usage.RSS),
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
	}
}
