package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gogpu/gg"

	"github.com/ivlev/scrollseq/internal/config"
	"github.com/ivlev/scrollseq/internal/engine"
	"github.com/ivlev/scrollseq/internal/script"
	"github.com/ivlev/scrollseq/internal/system"
)

// Set at build time with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

func main() {
	// Raise the open files limit before preloading (macOS/Linux)
	system.InitResourceLimits()

	configPtr := flag.String("config", "", "YAML configuration (default: newest file in configs/, else built-in page)")
	presetPtr := flag.String("preset", "", "Scrub a single built-in sequence: about, hero")
	assetsPtr := flag.String("assets", "", "Root directory or URL prepended to relative frame paths")
	scriptPtr := flag.String("script", "", "Scroll script YAML (default: newest file in internal/scripts/, else a full sweep)")
	outputPtr := flag.String("output", "", "Directory for rendered frames (default: output/<timestamp>)")
	fpsPtr := flag.Int("fps", 30, "Script sampling rate")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Concurrent frame loads and PNG writers")
	dpiPtr := flag.Int("dpi", 150, "DPI for PDF frames")
	statsPtr := flag.Bool("stats", false, "Print the performance report and append to benchmark.log")
	verbosePtr := flag.Bool("verbose", false, "Debug logging from the rasterizer")
	writeScriptPtr := flag.Bool("write-script", false, "Save the default sweep as a script and exit")

	flag.Parse()

	if *verbosePtr {
		gg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := loadConfig(*configPtr)
	if err := cfg.ApplyEnv(nil); err != nil {
		log.Fatalf("[-] Error: %v", err)
	}

	// Explicit flags win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assets":
			cfg.AssetsRoot = *assetsPtr
		case "script":
			cfg.Script = *scriptPtr
		case "output":
			cfg.OutputDir = *outputPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "workers":
			cfg.Workers = *workersPtr
		case "dpi":
			cfg.DPI = *dpiPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})

	if *presetPtr != "" {
		seq, ok := config.Preset(*presetPtr)
		if !ok {
			log.Fatalf("[-] Unknown preset %q (about, hero)", *presetPtr)
		}
		cfg.Sequences = []config.Sequence{seq}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Error: %v", err)
	}

	if *writeScriptPtr {
		path := script.GeneratePath()
		os.MkdirAll(filepath.Dir(path), 0755)
		maxScroll := cfg.Page.DocumentHeight - cfg.Page.ViewportHeight
		if err := script.Write(script.Sweep(max(maxScroll, 0), 6), path); err != nil {
			log.Fatalf("[-] Error writing script: %v", err)
		}
		fmt.Printf("[+++] Script saved: %s\n", path)
		return
	}

	var sc *script.Script
	scriptPath := cfg.Script
	if scriptPath == "" {
		if latest, err := script.FindLatest(script.Dir); err == nil {
			scriptPath = latest
		}
	}
	if scriptPath != "" {
		var err error
		sc, err = script.Read(scriptPath)
		if err != nil {
			log.Fatalf("[-] Error reading script: %v", err)
		}
		fmt.Printf("[*] Using script: %s\n", scriptPath)
	}

	if cfg.OutputDir == "output" {
		cfg.OutputDir = filepath.Join("output", time.Now().Format("2006-01-02_15-04-05"))
	}

	project, err := engine.NewProject(cfg, sc)
	if err != nil {
		log.Fatalf("[-] Error: %v", err)
	}
	project.Build = buildVersion

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := project.Run(ctx); err != nil {
		log.Fatalf("[-] Project error: %v", err)
	}
}

func loadConfig(path string) *config.File {
	if path == "" {
		latest, err := system.FindLatestConfig("configs")
		if err != nil {
			fmt.Println("[*] No configuration found, using the built-in page")
			return config.Default()
		}
		path = latest
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("[-] Error loading %s: %v", path, err)
	}
	fmt.Printf("[*] Configuration: %s\n", path)
	return cfg
}
