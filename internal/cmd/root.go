package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/config"
	"github.com/felixgeelhaar/todoask/internal/telemetry"
)

// skipValidation marks commands that must run on an invalid configuration.
const skipValidation = "todoask/skip-validation"

// rootOptions are the persistent flags.
type rootOptions struct {
	configFile string
	envFile    string
	format     string
	noColor    bool
	logLevel   string
	verbose    bool
}

// NewRootCmd builds the todoask command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "todoask",
		Short: "Manage your to-do list and ask an AI assistant",
		Long: `todoask is a command-line client for a to-do list service and an
"ask an AI" service. Both require you to sign in; your ID token is attached
to every request automatically.

Examples:
  todoask auth login
  todoask tasks add "buy milk"
  todoask tasks list
  todoask ask "What should I cook tonight?"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.todoask/config.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with TODOASK_* overrides")
	flags.StringVarP(&opts.format, "format", "o", "", "output format: text, json, yaml")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "shorthand for --log-level debug")

	rootCmd.AddCommand(
		newTasksCmd(),
		newAskCmd(),
		newAuthCmd(),
		newConfigCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// setup loads configuration, applies flag overrides and stores the App in
// the command context.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{ConfigFile: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return err
	}

	if o.format != "" {
		cfg.Output.Format = strings.ToLower(o.format)
	}
	if o.noColor {
		cfg.Output.NoColor = true
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}

	if cmd.Annotations[skipValidation] != "true" {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	app, err := NewApp(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cmd.SetContext(withApp(cmd.Context(), app))
	return nil
}

// instrument wraps a RunE with a command span and metrics, and flushes
// both once the command returns.
func instrument(name string, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := appFrom(cmd)
		if err != nil {
			return err
		}

		start := time.Now()
		ctx, span := telemetry.StartCommandSpan(cmd.Context(), name)
		cmd.SetContext(ctx)

		err = run(cmd, args)

		app.Metrics.RecordCommand(name, err == nil, time.Since(start))
		if err != nil {
			app.Logger.WithError(err).DebugContext(ctx, "command failed", "command", name)
			telemetry.RecordError(span, err)
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()

		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if cerr := app.Close(flushCtx); cerr != nil {
			app.Logger.WithError(cerr).Warn("failed to flush telemetry")
		}
		return err
	}
}

// ExecuteContext runs the root command
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
