// Command chart-snapshot performs one dashboard page load against a data API
// and writes every drawn surface to DIR/<surface>.<ext>.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cruscotto/internal/cli"
	"cruscotto/internal/config"
	"cruscotto/internal/dashboard"
	"cruscotto/internal/fetch"
	"cruscotto/internal/log"
	"cruscotto/internal/render"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFile).WithComponent(log.ComponentSnapshot)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], cfg, logger, os.Stderr); err != nil {
		logger.Error("Snapshot failed", log.FieldError, err)
		stop()
		os.Exit(1)
	}
}

type options struct {
	api      string
	out      string
	format   string
	width    int
	height   int
	surfaces string
	timeout  time.Duration
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("chart-snapshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.api, "api", cfg.APIBaseURL, "base URL serving /api/category_data and /api/account_data")
	fs.StringVar(&o.out, "out", ".", "output directory")
	fs.StringVar(&o.format, "format", cfg.RenderFormat, "image format: svg or png")
	fs.IntVar(&o.width, "width", cfg.ChartWidth, "surface width in pixels")
	fs.IntVar(&o.height, "height", cfg.ChartHeight, "surface height in pixels")
	fs.StringVar(&o.surfaces, "surfaces", strings.Join(cfg.PageSurfaces, ","), "comma separated surfaces present on the page")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall deadline for the page load")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.width <= 0 || o.height <= 0 {
		return o, fmt.Errorf("invalid size %dx%d", o.width, o.height)
	}
	return o, nil
}

func run(ctx context.Context, args []string, cfg *config.Config, logger *log.Logger, stderr io.Writer) error {
	o, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(o.format)
	if err != nil {
		return err
	}
	fetcher, err := fetch.New(o.api, &http.Client{Timeout: o.timeout})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	page := render.NewPage(o.width, o.height, format, strings.Split(o.surfaces, ",")...)
	results := dashboard.New(fetcher, render.NewEngine(), logger).Init(ctx, page)

	states := make(map[string]dashboard.State, len(results))
	failed := 0
	for _, res := range results {
		states[res.Surface] = res.State
		if res.State == dashboard.StateFailed {
			failed++
		}
	}

	for _, s := range page.Surfaces() {
		if !s.Drawn() {
			logger.WarnContext(ctx, "Surface left blank", log.FieldSurface, s.Name())
			continue
		}
		path := filepath.Join(o.out, s.Name()+"."+format.Ext())
		if err := os.WriteFile(path, s.Content(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.InfoContext(ctx, "Surface written",
			log.FieldOperation, log.OpWrite,
			log.FieldSurface, s.Name(),
			log.FieldState, states[s.Name()].String(),
			"path", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d chart(s) failed to load", failed)
	}
	return nil
}
