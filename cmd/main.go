// Command vacstat builds salary and vacancy statistics from job-posting CSV
// exports.
//
// Usage:
//
//	vacstat report --input vacancies.csv --profession Программист [--format json]
//	vacstat split --input vacancies.csv --dir CSV
//	vacstat serve --addr :9080
//	vacstat currencies
//	vacstat generate --rows 100000 --output vacancies.csv
//	vacstat loadtest --url http://localhost:9080 --reports 20
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/vacstat/internal/adapters/http/api"
	"github.com/okian/vacstat/internal/adapters/http/swagger"
	"github.com/okian/vacstat/internal/adapters/render"
	"github.com/okian/vacstat/internal/adapters/source"
	app "github.com/okian/vacstat/internal/app"
	"github.com/okian/vacstat/internal/config"
	"github.com/okian/vacstat/internal/domain/currency"
	"github.com/okian/vacstat/internal/domain/model"
	"github.com/okian/vacstat/internal/loadtest"
	"github.com/okian/vacstat/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const configKey = "config"

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newApp builds the CLI. Reports go to stdout; logs go to stderr so the
// output can be piped.
func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "vacstat",
		Usage:     "Salary and vacancy statistics from job-posting CSV exports",
		Version:   fmt.Sprintf("%s (commit: %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				EnvVars: []string{config.EnvFile},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			return setup(c, stderr)
		},
		Commands: []*cli.Command{
			reportCommand(),
			splitCommand(),
			serveCommand(),
			currenciesCommand(),
			generateCommand(),
			loadtestCommand(),
		},
	}
}

// setup initializes logging and loads the layered configuration.
func setup(c *cli.Context, stderr io.Writer) error {
	if err := logger.InitWithWriter(stderr); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if path := c.String("config"); path != "" {
		if err := os.Setenv(config.EnvFile, path); err != nil {
			return err
		}
	}

	cfg, err := config.Load(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(c.Context, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

// loadedConfig returns the config with flags explicitly set on the command
// line applied on top.
func loadedConfig(c *cli.Context) (*config.Config, error) {
	base, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, errors.New("config not loaded")
	}
	cfg := *base

	if c.IsSet("input") {
		cfg.InputFile = c.String("input")
	}
	if c.IsSet("profession") {
		cfg.Profession = c.String("profession")
	}
	if c.IsSet("format") {
		cfg.OutputFormat = strings.ToLower(strings.TrimSpace(c.String("format")))
	}
	if c.IsSet("workers") {
		cfg.WorkerCount = c.Int("workers")
	}
	if c.IsSet("top-cities") {
		cfg.TopCities = c.Int("top-cities")
	}
	if c.IsSet("min-share") {
		cfg.MinCityShare = c.Float64("min-share")
	}
	if c.IsSet("dir") {
		cfg.SplitDir = c.String("dir")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newService(cfg *config.Config) *app.Service {
	opts := []app.Option{
		app.WithLogger(logger.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithTopCities(cfg.TopCities),
		app.WithMinCityShare(cfg.MinCityShare),
		app.WithMaxReports(cfg.MaxReports),
		app.WithMaxUploadBytes(cfg.MaxUploadBytes),
	}
	if len(cfg.CurrencyRates) > 0 {
		opts = append(opts, app.WithCurrencyTable(currency.Table(cfg.CurrencyRates)))
	}
	return app.New(opts...)
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Path to the vacancies CSV",
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print salary and vacancy statistics for a profession",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.StringFlag{
				Name:    "profession",
				Aliases: []string{"p"},
				Usage:   "Substring matched against vacancy names (case-sensitive)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (table, json)",
			},
			&cli.IntFlag{Name: "workers", Usage: "Normalization workers; 1 runs inline"},
			&cli.IntFlag{Name: "top-cities", Usage: "Length of the ranked city views"},
			&cli.Float64Flag{Name: "min-share", Usage: "Drop cities with a smaller vacancy share"},
		},
		Action: runReport,
	}
}

func runReport(c *cli.Context) error {
	cfg, err := loadedConfig(c)
	if err != nil {
		return err
	}
	if cfg.InputFile == "" {
		return errors.New("no input file: pass --input or set input_file")
	}
	renderer, err := render.ForFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}

	t, err := source.ReadFile(cfg.InputFile)
	if err != nil {
		return err
	}
	rep, err := newService(cfg).BuildReport(c.Context, t, cfg.Profession)
	if err != nil {
		return err
	}
	return renderer.Render(c.App.Writer, rep)
}

func splitCommand() *cli.Command {
	return &cli.Command{
		Name:  "split",
		Usage: "Write one CSV per publication year",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Output directory"},
			&cli.StringFlag{Name: "column", Value: model.FieldPublishedAt, Usage: "Timestamp column to split on"},
		},
		Action: runSplit,
	}
}

func runSplit(c *cli.Context) error {
	cfg, err := loadedConfig(c)
	if err != nil {
		return err
	}
	if cfg.InputFile == "" {
		return errors.New("no input file: pass --input or set input_file")
	}

	t, err := source.ReadFile(cfg.InputFile)
	if err != nil {
		return err
	}
	split, err := source.SplitByYear(t, c.String("column"))
	if err != nil {
		return err
	}
	paths, err := source.WriteYearFiles(c.Context, cfg.SplitDir, split)
	if err != nil {
		return err
	}

	logger.Get().Info(c.Context, "split finished",
		logger.String("dir", cfg.SplitDir),
		logger.Int("files", len(paths)),
		logger.Int("rows", t.Len()),
		logger.Int("skipped", t.Skipped),
		logger.Int("bad_year", split.Skipped),
	)
	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve report submission and retrieval over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address"},
			&cli.IntFlag{Name: "workers", Usage: "Normalization workers per report"},
			&cli.IntFlag{Name: "top-cities", Usage: "Length of the ranked city views"},
			&cli.Float64Flag{Name: "min-share", Usage: "Drop cities with a smaller vacancy share"},
		},
		Action: runServe,
	}
}

// newHTTPServer wires the API routes for svc.
func newHTTPServer(cfg *config.Config, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	swagger.Register(mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context
	cfg, err := loadedConfig(c)
	if err != nil {
		return err
	}

	svc := newService(cfg)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	srv := newHTTPServer(cfg, svc)
	log := logger.Get()

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

func currenciesCommand() *cli.Command {
	return &cli.Command{
		Name:  "currencies",
		Usage: "List the exchange rates used for conversion to " + currency.Base,
		Action: func(c *cli.Context) error {
			cfg, err := loadedConfig(c)
			if err != nil {
				return err
			}
			table := currency.Default()
			if len(cfg.CurrencyRates) > 0 {
				table = currency.Table(cfg.CurrencyRates)
			}
			for _, code := range table.Codes() {
				rate, _ := table.Rate(code)
				fmt.Fprintf(c.App.Writer, "%s\t%g\n", code, rate)
			}
			return nil
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write a synthetic vacancies export",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "rows", Value: 10_000, Usage: "Data rows to write"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "Generator seed"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file; stdout when empty"},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) (err error) {
	w := c.App.Writer
	if path := c.String("output"); path != "" {
		f, ferr := os.Create(path)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	_, err = loadtest.Generate(c.Context, w, c.Int("rows"), c.Uint64("seed"))
	return err
}

func loadtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "loadtest",
		Usage: "Submit a synthetic export to a running server and compare the stored reports",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "Base URL of the service"},
			&cli.IntFlag{Name: "rows", Value: 10_000, Usage: "Data rows in the export"},
			&cli.IntFlag{Name: "reports", Value: 10, Usage: "Submissions of the export"},
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "Concurrent submitters"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "HTTP request timeout"},
			&cli.StringFlag{Name: "profession", Aliases: []string{"p"}, Value: "Программист", Usage: "Profession filter"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "Generator seed"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Save the export to this file"},
		},
		Action: func(c *cli.Context) error {
			stats, err := loadtest.Run(c.Context, &loadtest.Config{
				BaseURL:    c.String("url"),
				Rows:       c.Int("rows"),
				Reports:    c.Int("reports"),
				Workers:    c.Int("workers"),
				Timeout:    c.Duration("timeout"),
				Profession: c.String("profession"),
				Seed:       c.Uint64("seed"),
				OutputFile: c.String("output"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%d reports verified in %s\n", stats.ReportsVerified, stats.Duration)
			return nil
		},
	}
}
