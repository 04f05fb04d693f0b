package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"meshmon/internal/api"
	"meshmon/internal/batman"
	"meshmon/internal/chat"
	"meshmon/internal/classifier"
	"meshmon/internal/config"
	"meshmon/internal/metrics"
	"meshmon/internal/monitor"
	"meshmon/internal/snapshot"
	"meshmon/internal/stunutil"
)

const usage = `meshmon - batman-adv mesh link monitor with failure-risk scoring

Usage:
  meshmon run --config <path>
  meshmon stats --config <path> [--window 15m]
  meshmon export csv --config <path> --out <file>
  meshmon doctor --config <path>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "-h", "--help", "help":
		fmt.Print(usage)
	case "run":
		handleRun(os.Args[2:])
	case "stats":
		handleStats(os.Args[2:])
	case "export":
		handleExport(os.Args[2:])
	case "doctor":
		handleDoctor(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func loadConfig(path string) config.Config {
	if path == "" {
		fatal(fmt.Errorf("--config is required"))
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal(err)
	}
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}
	return cfg
}

func handleRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	logger := newLogger()
	mon := cfg.Monitor

	mdl, err := classifier.Load(mon.ModelPath)
	switch {
	case err == nil:
		logger.Info().Str("path", mon.ModelPath).Str("version", mdl.Version()).Msg("model loaded")
	case errors.Is(err, classifier.ErrNotLoaded):
		logger.Warn().Str("path", mon.ModelPath).Err(err).Msg("model not available, running without predictions")
	default:
		fatal(err)
	}

	snapshots := snapshot.New()
	loop := monitor.New(monitor.Options{
		Source:          batman.FileSource{Path: mon.OriginatorsPath},
		Log:             metrics.Writer{Dir: mon.LogDir, BatteryOverride: mon.BatteryPct},
		Model:           mdl,
		Snapshots:       snapshots,
		PollInterval:    time.Duration(mon.PollIntervalSec) * time.Second,
		PredictInterval: time.Duration(mon.PredictIntervalSec) * time.Second,
		ActionThreshold: mon.ActionThreshold,
		BatteryOverride: mon.BatteryPct,
		Logger:          logger.With().Str("component", "monitor").Logger(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The read API bind is the one fatal failure; everything inside the
	// loop recovers per tick.
	apiErr := make(chan error, 1)
	server := api.NewServer(cfg.API.Listen, snapshots, mdl != nil, logger.With().Str("component", "api").Logger())
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiErr <- err
		}
	}()

	if cfg.Chat != nil && cfg.Chat.Listen != "" {
		relay := chat.NewRelay(logger.With().Str("component", "chat").Logger())
		go func() {
			if err := relay.ListenAndServe(ctx, cfg.Chat.Listen); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("chat relay stopped")
			}
		}()
	}

	logger.Info().
		Str("originators", mon.OriginatorsPath).
		Str("log_dir", mon.LogDir).
		Int("poll_interval_sec", mon.PollIntervalSec).
		Int("predict_interval_sec", mon.PredictIntervalSec).
		Msg("starting mesh monitor")

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case err := <-apiErr:
		fatal(err)
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			fatal(err)
		}
	}
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	window := fs.Duration("window", 15*time.Minute, "trailing window to summarize")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	rows, err := metrics.ReadDir(cfg.Monitor.LogDir)
	if err != nil {
		fatal(err)
	}

	summary := metrics.Summarize(rows, time.Now().UTC().Add(-*window))
	if summary.Count == 0 {
		fmt.Printf("no samples in the last %s\n", *window)
		return
	}

	fmt.Printf("samples: %d (labeled: %d)\n", summary.Count, summary.Labeled)
	fmt.Printf("window:  %s .. %s\n", summary.From.Format(time.RFC3339), summary.To.Format(time.RFC3339))
	fmt.Printf("signal:  avg %.3f min %.3f\n", summary.AvgSignalStrength, summary.MinSignalStrength)
	fmt.Printf("loss:    avg %.3f max %.3f\n", summary.AvgPacketLoss, summary.MaxPacketLoss)
	for _, ns := range summary.Neighbors {
		fmt.Printf("  %-17s rows=%-5d labeled=%-3d avg_signal=%.3f avg_loss=%.3f\n",
			ns.Neighbor, ns.Count, ns.Labeled, ns.AvgSignalStrength, ns.AvgPacketLoss)
	}
}

func handleExport(args []string) {
	if len(args) < 1 || args[0] != "csv" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	fs := flag.NewFlagSet("export csv", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	out := fs.String("out", "", "output CSV path")
	_ = fs.Parse(args[1:])

	cfg := loadConfig(*cfgPath)
	if *out == "" {
		fatal(fmt.Errorf("--out is required"))
	}

	file, err := os.Create(*out)
	if err != nil {
		fatal(err)
	}
	defer file.Close()

	n, err := metrics.Export(cfg.Monitor.LogDir, file)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("exported %d rows to %s\n", n, *out)
}

func handleDoctor(args []string) {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	mon := cfg.Monitor
	failed := false

	source := batman.FileSource{Path: mon.OriginatorsPath}
	records, skipped, err := source.Read()
	if err != nil {
		fmt.Printf("FAIL originators: %v\n", err)
		failed = true
	} else {
		fmt.Printf("ok   originators: %d neighbors (%d lines skipped)\n", len(records), skipped)
	}

	if err := checkLogDir(mon.LogDir); err != nil {
		fmt.Printf("FAIL log dir: %v\n", err)
		failed = true
	} else {
		fmt.Printf("ok   log dir: %s writable\n", mon.LogDir)
	}

	mdl, err := classifier.Load(mon.ModelPath)
	switch {
	case err == nil:
		fmt.Printf("ok   model: %s (version %s)\n", mon.ModelPath, mdl.Version())
	case errors.Is(err, classifier.ErrNotLoaded):
		fmt.Printf("ok   model: not available, monitoring-only mode (%v)\n", err)
	default:
		fmt.Printf("FAIL model: %v\n", err)
		failed = true
	}

	if cfg.Uplink != nil && len(cfg.Uplink.STUNServers) > 0 {
		result, err := stunutil.Probe(context.Background(), cfg.Uplink.STUNServers, 5*time.Second)
		if err != nil {
			fmt.Printf("warn uplink: probe failed: %v\n", err)
		} else {
			fmt.Printf("ok   uplink: public address %s (nat %s)\n", result.PublicAddr, result.NATType)
		}
	}

	if failed {
		os.Exit(1)
	}
}

func checkLogDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
