// Package cmd provides the boolir commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ui"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/logger"
)

type rootOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	metricsPort int
	noColor     bool
	indexDir    string
	backend     string
	stemmer     string
	noCache     bool
}

// NewRootCmd creates the boolir command tree. Running it without a
// subcommand executes the full pipeline.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	runOpts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "boolir",
		Short: "Boolean retrieval over a small document collection",
		Long: `boolir preprocesses a document collection, builds an inverted index
and answers boolean queries built from terms, AND, OR, NOT and parentheses.

Run without a subcommand to preprocess the sample corpus, build the index,
run the test queries and start an interactive prompt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd, opts, a)
		},
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runPipeline(cmd, a, runOpts)
		}),
	}
	runOpts.bind(cmd)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	pf.IntVar(&opts.metricsPort, "metrics-port", 0, "Serve /metrics, /health/ready and /analytics/stats on this port")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	pf.StringVar(&opts.indexDir, "index-dir", "", "Index directory")
	pf.StringVar(&opts.backend, "backend", "", "Index backend: bleve or segment")
	pf.StringVar(&opts.stemmer, "stemmer", "", "Stemmer: porter, snowball or none")
	pf.BoolVar(&opts.noCache, "no-cache", false, "Disable the query result cache")

	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newPreprocessCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newReplCmd(a))
	cmd.AddCommand(newVerifyCmd(a))
	cmd.AddCommand(newTermsCmd(a))
	cmd.AddCommand(newStatusCmd(a))

	return cmd
}

// Execute runs the command tree with ctx, which is cancelled on SIGINT and
// SIGTERM by the caller.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	return apperrors.ExitCode(err)
}

// setup loads configuration, applies flag overrides and initialises
// logging, metrics and the shared app.
func setup(cmd *cobra.Command, opts *rootOptions, a *app) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "loading config: %v", err)
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
	if flags.Changed("metrics-port") {
		cfg.Metrics.Port = opts.metricsPort
	}
	if flags.Changed("index-dir") {
		cfg.Indexer.DataDir = opts.indexDir
	}
	if flags.Changed("backend") {
		cfg.Indexer.Backend = opts.backend
	}
	if flags.Changed("stemmer") {
		cfg.Preprocess.Stemmer = opts.stemmer
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage, "%v", err)
	}

	logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	out := cmd.OutOrStdout()
	if err := a.init(cfg, ui.NewPrinter(out, ui.ColorEnabled(out, opts.noColor))); err != nil {
		return err
	}
	if err := a.serveMetrics(); err != nil {
		return fmt.Errorf("starting metrics server: %w", err)
	}
	return nil
}

// runE releases the app's resources after fn returns, whether or not it
// failed.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close(context.WithoutCancel(cmd.Context()))
		return fn(cmd, args)
	}
}
