// ABOUTME: CLI entrypoint with serve and batch modes.
// ABOUTME: Wires the key store, project store, boundary client, pipeline, HTTP server, and batch TUI together.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/2389-research/storyforge/genai"
	"github.com/2389-research/storyforge/keystore"
	"github.com/2389-research/storyforge/pipeline"
	"github.com/2389-research/storyforge/store"
	"github.com/2389-research/storyforge/tui"
	"github.com/2389-research/storyforge/web"
)

var version = "dev"

type config struct {
	addr        string
	dataDir     string
	keysFile    string
	fontPath    string
	baseURL     string
	pollCeiling time.Duration
	showVersion bool
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load err=%v", err)
	}

	fs := flag.NewFlagSet("storyforge", flag.ExitOnError)
	var cfg config
	fs.StringVar(&cfg.addr, "addr", "127.0.0.1:8787", "HTTP listen address")
	fs.StringVar(&cfg.dataDir, "data-dir", defaultDataDir(), "Data directory for the project database and key file")
	fs.StringVar(&cfg.keysFile, "keys-file", "", "Path to the credential YAML file (default: <data-dir>/keys.yaml)")
	fs.StringVar(&cfg.fontPath, "font", os.Getenv("STORYFORGE_FONT"), "TTF font for CTA overlay text")
	fs.StringVar(&cfg.baseURL, "base-url", os.Getenv("STORYFORGE_BASE_URL"), "Override the generative service base URL")
	fs.DurationVar(&cfg.pollCeiling, "poll-ceiling", 10*time.Minute, "Wall-clock ceiling for video job polling")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: storyforge [flags] <serve|batch>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if cfg.showVersion {
		fmt.Printf("storyforge %s\n", version)
		return
	}

	mode := fs.Arg(0)
	if mode == "" {
		mode = "serve"
	}

	os.Exit(run(mode, cfg))
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "storyforge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storyforge"
	}
	return filepath.Join(home, ".local", "share", "storyforge")
}

func run(mode string, cfg config) int {
	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		log.Printf("creating data dir err=%v", err)
		return 1
	}
	if cfg.keysFile == "" {
		cfg.keysFile = filepath.Join(cfg.dataDir, "keys.yaml")
	}

	keys, err := keystore.Open(cfg.keysFile)
	if err != nil {
		log.Printf("opening key store err=%v", err)
		return 1
	}

	st, err := store.Open(filepath.Join(cfg.dataDir, "storyforge.db"))
	if err != nil {
		log.Printf("opening project store err=%v", err)
		return 1
	}
	defer st.Close()

	var clientOpts []genai.ClientOption
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, genai.WithBaseURL(cfg.baseURL))
	}
	client := genai.NewClient(clientOpts...)

	poller := genai.DefaultPollerConfig()
	poller.MaxWait = cfg.pollCeiling
	p := pipeline.New(client, keys, pipeline.WithPollerConfig(poller))

	switch mode {
	case "serve":
		server := web.NewServer(p, keys, st, web.ServerConfig{Addr: cfg.addr, FontPath: cfg.fontPath})
		log.Printf("storyforge serving addr=%s data=%s", cfg.addr, cfg.dataDir)
		if err := server.ListenAndServe(); err != nil {
			log.Printf("server err=%v", err)
			return 1
		}
		return 0
	case "batch":
		return runBatch(p, st)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want serve or batch)\n", mode)
		return 2
	}
}

// runBatch generates an image sequence for the most recent project's
// storyboard, watching progress in the terminal.
func runBatch(p *pipeline.Pipeline, st *store.Store) int {
	projects, err := st.ListProjects()
	if err != nil || len(projects) == 0 {
		log.Printf("no projects available err=%v", err)
		return 1
	}
	project := projects[0]

	scenes, err := st.GetStoryboard(project.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("project %s has no storyboard yet", project.ID)
		} else {
			log.Printf("loading storyboard err=%v", err)
		}
		return 1
	}

	prompts, err := p.SequencePrompts(context.Background(), pipeline.SequenceRequest{Scenes: scenes})
	if err != nil {
		log.Printf("sequence prompts err=%v", err)
		return 1
	}

	slots := pipeline.NewSlotStore(prompts)
	done := make(chan error, 1)
	go func() {
		done <- p.FillSequence(context.Background(), slots, genai.AspectLandscape)
	}()

	if _, err := tea.NewProgram(tui.NewModel(slots, done)).Run(); err != nil {
		log.Printf("tui err=%v", err)
		return 1
	}

	for _, slot := range slots.Snapshot() {
		if !slot.Filled() {
			continue
		}
		if _, err := st.SaveAsset(project.ID, slot.ID, slot.Prompt, slot.Image.MIMEType, slot.Image.Bytes); err != nil {
			log.Printf("saving asset slot=%s err=%v", slot.ID, err)
		}
	}
	log.Printf("batch finished project=%s filled=%d total=%d",
		project.ID, slots.FilledCount(), len(prompts))
	return 0
}
