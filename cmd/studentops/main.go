package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dennisdiepolder/studentops/internal/charts"
	"github.com/dennisdiepolder/studentops/internal/config"
	"github.com/dennisdiepolder/studentops/internal/dataset"
	"github.com/dennisdiepolder/studentops/internal/logging"
	"github.com/dennisdiepolder/studentops/internal/metrics"
	"github.com/dennisdiepolder/studentops/internal/report"
	"github.com/dennisdiepolder/studentops/internal/simulate"
	"github.com/dennisdiepolder/studentops/internal/sqlreport"
	"github.com/dennisdiepolder/studentops/internal/types"
)

// App holds the configuration, logger and metrics shared by the commands.
type App struct {
	cfg     *config.Config
	random  bool
	logger  zerolog.Logger
	metrics *metrics.Metrics
	out     io.Writer
	errOut  io.Writer
}

func main() {
	// Configure logger until the configured one is built
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{cfg: cfg, out: os.Stdout, errOut: os.Stderr}
	if err := app.command().ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("studentops failed")
	}
}

// command builds the CLI. Flag defaults come from the loaded configuration,
// so flags override the environment.
func (a *App) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "studentops",
		Short:         "Simulate and analyze student services interactions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	f := root.PersistentFlags()
	f.IntVar(&a.cfg.Records, "records", a.cfg.Records, "number of interactions to generate")
	f.Int64Var(&a.cfg.Seed, "seed", a.cfg.Seed, "random seed for generation")
	f.BoolVar(&a.random, "random", false, "seed generation from the clock")
	f.StringVar(&a.cfg.DataPath, "data", a.cfg.DataPath, "dataset CSV path")
	f.StringVar(&a.cfg.DashboardDir, "dashboards", a.cfg.DashboardDir, "chart output directory")
	f.StringVar(&a.cfg.SummaryPath, "summary", a.cfg.SummaryPath, "summary JSON path")
	f.StringVar(&a.cfg.MetricsPath, "metrics", a.cfg.MetricsPath, "Prometheus textfile path (empty disables)")
	f.StringVar(&a.cfg.Engine, "engine", a.cfg.Engine, "report engine (memory, sqlite)")
	f.StringVar(&a.cfg.ProfilePath, "profile", a.cfg.ProfilePath, "YAML generation profile")
	f.Float64Var(&a.cfg.Alpha, "alpha", a.cfg.Alpha, "significance level")
	f.IntVar(&a.cfg.HotspotThreshold, "hotspot-threshold", a.cfg.HotspotThreshold, "minimum group size for escalation hotspots")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format (console, json)")

	root.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Generate the interaction dataset",
			Args:  cobra.NoArgs,
			RunE:  a.runE("generate", func(context.Context) error { return a.generate() }),
		},
		&cobra.Command{
			Use:   "report",
			Short: "Analyze the dataset and write summary and dashboards",
			Args:  cobra.NoArgs,
			RunE:  a.runE("report", a.report),
		},
		&cobra.Command{
			Use:   "run",
			Short: "Generate the dataset, then analyze it",
			Args:  cobra.NoArgs,
			RunE: a.runE("run", func(ctx context.Context) error {
				if err := a.generate(); err != nil {
					return err
				}
				return a.report(ctx)
			}),
		},
	)
	return root
}

// runE adapts fn to a cobra RunE. The metrics textfile is written whether or
// not fn fails, and failures are counted under name.
func (a *App) runE(name string, fn func(context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd.Context())
		if err != nil {
			a.metrics.RecordFailure(name)
		}
		if werr := a.writeMetrics(); werr != nil {
			if err == nil {
				return werr
			}
			a.logger.Warn().Err(werr).Msg("failed to write metrics")
		}
		return err
	}
}

func (a *App) setup() error {
	a.logger = logging.New(a.cfg.LogLevel, a.cfg.LogFormat, a.errOut)
	log.Logger = a.logger
	a.metrics = metrics.New()
	a.cfg.Engine = strings.ToLower(a.cfg.Engine)
	if a.random {
		a.cfg.Seed = time.Now().UnixNano()
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// profile returns the configured generation profile, or the built-in one.
func (a *App) profile() (simulate.Profile, error) {
	if a.cfg.ProfilePath == "" {
		return simulate.DefaultProfile(), nil
	}
	p, err := simulate.LoadProfile(a.cfg.ProfilePath)
	if err != nil {
		return p, err
	}
	a.logger.Info().Str("profile", a.cfg.ProfilePath).Msg("generation profile loaded")
	return p, nil
}

func (a *App) generate() error {
	profile, err := a.profile()
	if err != nil {
		return err
	}

	gen, err := simulate.NewGenerator(profile, a.cfg.Seed)
	if err != nil {
		return err
	}

	start := time.Now()
	records, err := gen.Generate(a.cfg.Records)
	if err != nil {
		return err
	}
	if err := dataset.WriteFile(a.cfg.DataPath, records); err != nil {
		return err
	}
	a.metrics.RecordGenerated(len(records))
	a.metrics.RecordStage("generate", time.Since(start))

	a.logger.Info().
		Int("records", len(records)).
		Int64("seed", a.cfg.Seed).
		Str("path", a.cfg.DataPath).
		Dur("elapsed", time.Since(start)).
		Msg("dataset generated")
	return nil
}

func (a *App) report(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With().Str("run_id", runID).Logger()

	profile, err := a.profile()
	if err != nil {
		return err
	}

	start := time.Now()
	records, err := dataset.ReadFileWithCatalog(a.cfg.DataPath, profile.Catalog())
	if err != nil {
		return err
	}
	a.metrics.RecordLoaded(len(records))
	a.metrics.RecordStage("load", time.Since(start))
	logger.Info().Int("records", len(records)).Str("path", a.cfg.DataPath).Msg("dataset loaded")

	engine, closeEngine, err := a.engine(ctx, records, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	builder := report.NewBuilder(a.metrics.Instrument(a.cfg.Engine, engine), report.Options{
		RunID:            runID,
		EngineName:       a.cfg.Engine,
		Source:           a.cfg.DataPath,
		Alpha:            a.cfg.Alpha,
		HotspotThreshold: a.cfg.HotspotThreshold,
	}, logger)

	start = time.Now()
	summary, err := builder.Build(ctx, records)
	if err != nil {
		return err
	}
	a.metrics.RecordStage("report", time.Since(start))
	if err := report.Render(a.out, summary); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	if err := summary.WriteJSON(a.cfg.SummaryPath); err != nil {
		return err
	}
	logger.Info().Str("path", a.cfg.SummaryPath).Msg("summary written")

	start = time.Now()
	paths, err := charts.NewWriter(a.cfg.DashboardDir, logger).Write(summary)
	if err != nil {
		return err
	}
	a.metrics.RecordCharts(len(paths))
	a.metrics.RecordStage("charts", time.Since(start))
	return nil
}

func (a *App) writeMetrics() error {
	if a.cfg.MetricsPath == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsPath); err != nil {
		return err
	}
	a.logger.Debug().Str("path", a.cfg.MetricsPath).Msg("metrics written")
	return nil
}

func (a *App) engine(ctx context.Context, records []types.Interaction, logger zerolog.Logger) (report.Engine, func(), error) {
	switch a.cfg.Engine {
	case config.EngineSQLite:
		e, err := sqlreport.Open(ctx, records, logger)
		if err != nil {
			return nil, nil, err
		}
		return e, func() {
			if err := e.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close sqlite")
			}
		}, nil
	case config.EngineMemory:
		return report.NewMemoryEngine(records), func() {}, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownEngine, a.cfg.Engine)
}
