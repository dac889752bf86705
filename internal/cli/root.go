// Package cli implements the tally command line: scoring and reporting on
// league snapshots, validating engine configurations and generating
// sample seasons.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/infrastructure/middleware"
	"github.com/ahrav/go-tally/internal/application"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logFormat  string
	logLevel   string
	metricsOut string
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the tally command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	envConfig := os.Getenv("TALLY_CONFIG")
	envLogLevel := os.Getenv("TALLY_LOG_LEVEL")
	if envLogLevel == "" {
		envLogLevel = "info"
	}

	cmd := &cobra.Command{
		Use:          "tally",
		Short:        "Fantasy league scoring and season statistics",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to an engine YAML configuration (default: built-in)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envLogLevel, "log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.metricsOut, "metrics-out", "", `write Prometheus metrics in text format to this file ("-" for stderr)`)

	cmd.AddCommand(newScoreCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newGenerateCmd())
	return cmd
}

// newLogger builds a slog logger writing to w in the requested format.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
}

// session is an engine wired with the logger and metrics for one command.
type session struct {
	engine   *application.Engine
	registry *prometheus.Registry
}

// newSession loads the configured engine. Logs go to the command's error
// stream so JSON output stays clean.
func newSession(cmd *cobra.Command, opts *options) (*session, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), opts.logFormat, opts.logLevel)
	if err != nil {
		return nil, err
	}

	def, err := loadDefinition(cmd.Context(), opts.configPath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	engine, err := application.NewEngine(def,
		application.WithLogger(logger),
		application.WithMetrics(middleware.NewPrometheusMetrics(registry)),
	)
	if err != nil {
		return nil, err
	}
	return &session{engine: engine, registry: registry}, nil
}

func loadDefinition(ctx context.Context, configPath string) (*application.EngineDefinition, error) {
	loader, err := application.NewEngineLoader(application.NewDefaultUnitRegistry())
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		return loader.LoadDefault(ctx)
	}
	def, err := loader.LoadFromFile(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("load engine config %s: %w", configPath, err)
	}
	return def, nil
}

// writeMetrics dumps the session's registry when --metrics-out is set.
func (s *session) writeMetrics(cmd *cobra.Command, opts *options) error {
	if opts.metricsOut == "" {
		return nil
	}

	families, err := s.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var w io.Writer = cmd.ErrOrStderr()
	if opts.metricsOut != "-" {
		f, err := os.Create(opts.metricsOut)
		if err != nil {
			return fmt.Errorf("create metrics file: %w", err)
		}
		defer f.Close()
		w = f
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// writeJSON prints v as indented JSON on the command's output stream.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
