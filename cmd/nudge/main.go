package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/config"
	"wellness-nudges-backend/internal/mcp"
	"wellness-nudges-backend/internal/scoring"
	"wellness-nudges-backend/internal/tasks"
	"wellness-nudges-backend/internal/tui"
)

const version = "1.0.0"

var verbose bool

func main() {
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "recommend":
		err = runRecommend(args, os.Stdout)
	case "tasks":
		err = runTasks(args, os.Stdout)
	case "tui":
		err = runTUI(args)
	case "mcp":
		err = runMCP(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: nudge [-verbose] <command> [flags]

Commands:
  recommend   print today's ranked nudges for the given metrics
  tasks       print the seeded catalog
  tui         interactive view (complete / dismiss / refresh)
  mcp         serve the engine as MCP tools on stdio
`)
}

// metricsFlags holds the metric flags shared by recommend and tui. A metric
// left off the command line stays nil and fails validation.
type metricsFlags struct {
	water, steps, sleep, screen, mood *float64
	at, date                          string
}

func (m *metricsFlags) register(fs *flag.FlagSet) {
	fs.Func("water", "Water consumed today (ml)", floatFlag(&m.water))
	fs.Func("steps", "Steps walked today", floatFlag(&m.steps))
	fs.Func("sleep", "Hours slept last night", floatFlag(&m.sleep))
	fs.Func("screen", "Screen time today (minutes)", floatFlag(&m.screen))
	fs.Func("mood", "Mood (1-5)", floatFlag(&m.mood))
	fs.StringVar(&m.at, "at", "", "ISO-8601 time to score at (default now)")
	fs.StringVar(&m.date, "date", "", "YYYY-MM-DD day key (default the date of -at)")
}

func floatFlag(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}

func (m *metricsFlags) input() *tasks.MetricsInput {
	return &tasks.MetricsInput{
		WaterML:       m.water,
		Steps:         m.steps,
		SleepHours:    m.sleep,
		ScreenTimeMin: m.screen,
		Mood1to5:      m.mood,
	}
}

func runRecommend(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	var m metricsFlags
	m.register(fs)
	asJSON := fs.Bool("json", false, "Print the raw JSON response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, closeFn, err := newService(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := analytics.WithEnvelope(context.Background(), analytics.Envelope{Source: analytics.SourceCLI})
	resp, err := svc.Recommend(ctx, tasks.RecommendationRequest{
		Metrics:     m.input(),
		CurrentTime: m.at,
		LocalDate:   m.date,
	})
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err = fmt.Fprint(out, tui.RenderTable(resp, verbose))
	return err
}

func runTasks(args []string, out io.Writer) error {
	svc, closeFn, err := newService(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	for _, t := range svc.List(context.Background()) {
		line := fmt.Sprintf("%-18s %-10s impact=%g effort=%gm", t.ID, t.Category, t.ImpactWeight, t.EffortMin)
		if t.TimeGate != "" {
			line += " gate=" + string(t.TimeGate)
		}
		if t.MicroAlt != "" {
			line += " micro=" + t.MicroAlt
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func runTUI(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	var m metricsFlags
	m.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, closeFn, err := newService(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	p := tea.NewProgram(tui.NewApp(svc, m.input()), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runMCP(args []string) error {
	svc, closeFn, err := newService(context.Background())
	if err != nil {
		return err
	}
	defer closeFn()

	return mcp.Serve(mcp.NewServer(svc, version))
}

// newService builds a seeded service from config. Logs go to stderr so they
// never mix with table output or the MCP stream.
func newService(ctx context.Context) (*tasks.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.New(os.Stderr, "", 0)
	}

	closeFn := func() {}
	var recorder analytics.Recorder
	if cfg.Analytics.Enabled() {
		store, err := analytics.Open(ctx, cfg.Analytics.Driver, cfg.Analytics.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("analytics store: %w", err)
		}
		recorder = store
		closeFn = func() { store.Close() }
	}

	rec := tasks.NewRecommender(scoring.New(cfg.Weights), cfg.Limit)
	svc := tasks.NewService(rec, nil, recorder, logger)
	svc.Seed(ctx)
	return svc, closeFn, nil
}
