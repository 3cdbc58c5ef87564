package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/gogpu/gg"

	"github.com/ivlev/scrollseq/internal/config"
	"github.com/ivlev/scrollseq/internal/engine"
	"github.com/ivlev/scrollseq/internal/page"
	"github.com/ivlev/scrollseq/internal/player"
	"github.com/ivlev/scrollseq/internal/source"
	"github.com/ivlev/scrollseq/internal/system"
	"github.com/ivlev/scrollseq/internal/viewer"
)

func main() {
	system.InitResourceLimits()

	configPtr := flag.String("config", "", "YAML configuration (default: newest file in configs/, else built-in page)")
	presetPtr := flag.String("preset", "", "Show a single built-in sequence: about, hero")
	assetsPtr := flag.String("assets", "", "Root directory or URL prepended to relative frame paths")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Concurrent frame loads")
	dpiPtr := flag.Int("dpi", 150, "DPI for PDF frames")
	verbosePtr := flag.Bool("verbose", false, "Debug logging from the rasterizer")

	flag.Parse()

	if *verbosePtr {
		gg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := config.Default()
	path := *configPtr
	if path == "" {
		if latest, err := system.FindLatestConfig("configs"); err == nil {
			path = latest
		}
	}
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			log.Fatalf("[-] Error loading %s: %v", path, err)
		}
		fmt.Printf("[*] Configuration: %s\n", path)
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		log.Fatalf("[-] Error: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assets":
			cfg.AssetsRoot = *assetsPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		}
	})
	if *presetPtr != "" {
		seq, ok := config.Preset(*presetPtr)
		if !ok {
			log.Fatalf("[-] Unknown preset %q (about, hero)", *presetPtr)
		}
		cfg.Sequences = []config.Sequence{seq}
	}

	bg, err := engine.ParseBackground(cfg.Background)
	if err != nil {
		log.Fatalf("[-] Error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg := page.New(cfg.Page)
	game := viewer.NewGame(pg, bg)

	for _, seq := range cfg.Resolved() {
		loader, err := source.ForSequence(seq, source.Options{DPI: cfg.DPI})
		if err != nil {
			log.Fatalf("[-] Sequence %s: %v", seq.Name, err)
		}
		p, err := player.New(ctx, seq, pg, loader, player.Options{
			Workers: cfg.Workers,
			OnReady: func() { fmt.Printf("[+] %s: all %d frames resolved\n", seq.Name, seq.FrameCount) },
		})
		if errors.Is(err, player.ErrCanvasMissing) || errors.Is(err, player.ErrSectionMissing) {
			log.Printf("[!] Sequence %s skipped: %v", seq.Name, err)
			continue
		}
		if err != nil {
			log.Fatalf("[-] Sequence %s: %v", seq.Name, err)
		}
		game.Add(p)
	}

	fmt.Println("[*] Wheel/arrows/PageUp/PageDown/Home/End scroll, H toggles the overlay, Esc quits")
	if err := game.Run("scrollseq"); err != nil {
		log.Fatalf("[-] Viewer error: %v", err)
	}
}
