// Command rentbook keeps a rent ledger from the command line.
//
//	rentbook [global flags] <command> [flags] [args]
//
// Commands:
//
//	tenant add|edit|list|delete   manage tenants
//	bill <tenant-id>              record the next billing period
//	pay <entry-id>                record a payment against an entry
//	settle <entry-id>             settle an outstanding balance out of band
//	history                       list ledger entries
//	reminders                     list agreements ending soon
//	summary                       show each tenant's standing
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/xraph/rentbook"
	audithook "github.com/xraph/rentbook/audit_hook"
	"github.com/xraph/rentbook/config"
	"github.com/xraph/rentbook/observability"
)

const usage = `usage: rentbook [global flags] <command> [flags] [args]

commands:
  tenant add|edit|list|delete   manage tenants
  bill <tenant-id>              record the next billing period
  pay <entry-id>                record a payment against an entry
  settle <entry-id>             settle an outstanding balance out of band
  history                       list ledger entries
  reminders                     list agreements ending soon
  summary                       show each tenant's standing

global flags:
`

// errUsage marks a command line that could not be understood.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "rentbook:", err)
		}
		os.Exit(1)
	}
}

// app carries what every command needs.
type app struct {
	rb     *rentbook.Rentbook
	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := pflag.NewFlagSet("rentbook", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}

	var (
		configFile = global.StringP("config", "c", "", "config file (default: ./rentbook.yaml when present)")
		envFile    = global.String("env-file", ".env", "dotenv file loaded before reading the environment")
		driver     = global.String("driver", "", "store driver, overrides store.driver")
		path       = global.String("path", "", "store path, overrides store.path")
		dsn        = global.String("dsn", "", "store DSN, overrides store.dsn")
		logLevel   = global.String("log-level", "", "log level, overrides log.level")
	)
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errUsage
	}

	cfg, err := config.Load(config.Options{
		File:        *configFile,
		EnvFiles:    []string{*envFile},
		SearchPaths: []string{"."},
	})
	if err != nil {
		return err
	}
	override(&cfg.Store.Driver, *driver)
	override(&cfg.Store.Path, *path)
	override(&cfg.Store.DSN, *dsn)
	override(&cfg.Log.Level, *logLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg, stderr)

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []rentbook.Option{
		rentbook.WithLogger(logger),
		rentbook.WithCurrency(cfg.Currency),
		rentbook.WithDuplicatePolicy(rentbook.DuplicatePolicy(strings.ToLower(cfg.Ledger.DuplicatePeriods))),
		rentbook.WithChainPolicy(rentbook.ChainPolicy(strings.ToLower(cfg.Ledger.ChainPolicy))),
		rentbook.WithReminderWindow(cfg.Reminder.WindowDays, cfg.Reminder.UrgentDays),
		// The audit trail shows up with --log-level debug.
		rentbook.WithPlugin(audithook.New(
			audithook.LogRecorder(logger, slog.LevelDebug),
			audithook.WithLogger(logger),
		)),
	}

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		factory := observability.NewPrometheusFactory(registry, observability.WithNamespace(cfg.Metrics.Namespace))
		opts = append(opts, rentbook.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	rb := rentbook.New(s, opts...)
	if err := rb.Start(ctx); err != nil {
		_ = s.Close() //nolint:errcheck // best-effort cleanup after failed start
		return err
	}
	defer func() {
		if err := rb.Stop(); err != nil {
			logger.Warn("rentbook: stop", "error", err)
		}
	}()

	a := &app{rb: rb, cfg: cfg, out: stdout, logger: logger}
	cmdErr := a.dispatch(ctx, global.Args(), stderr)

	if registry != nil && cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, registry); err != nil {
			logger.Warn("rentbook: write metrics", "file", cfg.Metrics.Textfile, "error", err)
		}
	}
	return cmdErr
}

func (a *app) dispatch(ctx context.Context, args []string, stderr io.Writer) error {
	name, rest := args[0], args[1:]
	switch name {
	case "tenant":
		return a.tenantCmd(ctx, rest, stderr)
	case "bill":
		return a.billCmd(ctx, rest, stderr)
	case "pay":
		return a.payCmd(ctx, rest, stderr)
	case "settle":
		return a.settleCmd(ctx, rest, stderr)
	case "history":
		return a.historyCmd(ctx, rest, stderr)
	case "reminders":
		return a.remindersCmd(ctx, rest, stderr)
	case "summary":
		return a.summaryCmd(ctx, rest, stderr)
	}
	fmt.Fprintf(stderr, "rentbook: unknown command %q\n", name)
	return errUsage
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
