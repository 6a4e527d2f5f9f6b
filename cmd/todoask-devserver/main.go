// Command todoask-devserver runs an in-memory to-do and ask backend with a
// built-in token endpoint, for local development against the todoask CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/config"
	"github.com/felixgeelhaar/todoask/internal/devserver"
	"github.com/felixgeelhaar/todoask/internal/exitcode"
	"github.com/felixgeelhaar/todoask/internal/health"
	"github.com/felixgeelhaar/todoask/internal/log"
	"github.com/felixgeelhaar/todoask/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitcode.ExitWithError(err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		envFile    string
		addr       string
		tokenTTL   time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "todoask-devserver",
		Short:         "Run a local to-do and ask backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile})
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Devserver.Addr = addr
			}

			logCfg := log.ServerConfig()
			if cfg.Log.Level != "" {
				logCfg.Level = log.ParseLevel(cfg.Log.Level)
			}
			logger := log.New(logCfg)
			log.SetDefaultLogger(logger)

			store, err := devserver.OpenTaskStore(cmd.Context(), devserver.StoreConfig{
				Kind:       cfg.Devserver.Store,
				SQLitePath: cfg.Devserver.SQLitePath,
				RedisURL:   cfg.Devserver.RedisURL,
			})
			if err != nil {
				return err
			}
			logger.Info("task store ready", "store", cfg.Devserver.Store)

			reg, m := metrics.NewServerRegistry()
			opts := []devserver.Option{
				devserver.WithLogger(logger),
				devserver.WithMetrics(m, reg),
				devserver.WithUsers(cfg.Devserver.Users),
				devserver.WithTaskStore(store),
			}
			if cfg.Devserver.OpenAIAPIKey != "" {
				opts = append(opts,
					devserver.WithAnswerer(devserver.NewOpenAIAnswerer(cfg.Devserver.OpenAIAPIKey, cfg.Devserver.OpenAIBaseURL)),
					devserver.WithReadinessCheck(health.NewHTTPChecker("openai", strings.TrimSuffix(cfg.Devserver.OpenAIBaseURL, "/")+"/models", nil)),
				)
				logger.Info("answering prompts with OpenAI", "base_url", cfg.Devserver.OpenAIBaseURL)
			}

			srv := devserver.New(devserver.Config{Address: cfg.Devserver.Addr, TokenTTL: tokenTTL}, opts...)
			return serve(cmd.Context(), srv, logger)
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (default is $HOME/.todoask/config.yaml)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with TODOASK_* overrides")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides devserver.addr)")
	rootCmd.Flags().DurationVar(&tokenTTL, "token-ttl", time.Hour, "lifetime of issued ID tokens")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for devserver.users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := devserver.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	})

	return rootCmd
}

// serve runs srv until ctx is cancelled, then drains it.
func serve(ctx context.Context, srv *devserver.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return srv.Shutdown(context.WithoutCancel(ctx))
	}
}
