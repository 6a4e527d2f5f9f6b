package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/apiclient"
	"github.com/felixgeelhaar/todoask/internal/ask"
	"github.com/felixgeelhaar/todoask/internal/config"
	"github.com/felixgeelhaar/todoask/internal/identity"
	"github.com/felixgeelhaar/todoask/internal/log"
	"github.com/felixgeelhaar/todoask/internal/metrics"
	"github.com/felixgeelhaar/todoask/internal/tasks"
	"github.com/felixgeelhaar/todoask/internal/telemetry"
	"github.com/felixgeelhaar/todoask/internal/ux"
	"github.com/felixgeelhaar/todoask/internal/version"
)

// App holds the collaborators a command run needs. It is built once per
// invocation from the loaded configuration.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Identity  *identity.Provider
	HTTP      *http.Client
	Client    *apiclient.Client
	Tasks     *tasks.Service
	Ask       *ask.Service
	Formatter *ux.Formatter
	Styles    ux.Styles
	Out       io.Writer
	ErrOut    io.Writer
	In        io.Reader

	stopTracing func(context.Context) error
}

// NewApp wires the application from cfg. Nothing here touches the network.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) (*App, error) {
	logger := log.New(log.Config{
		Level:   log.ParseLevel(cfg.Log.Level),
		Format:  log.ParseFormat(cfg.Log.Format),
		Writer:  errOut,
		Service: "todoask",
	})
	log.SetDefaultLogger(logger)

	stopTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "todoask",
		ServiceVersion: version.Version,
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		logger.WithError(err).Warn("tracing disabled")
		stopTracing = func(context.Context) error { return nil }
	}

	reg, m := metrics.NewRegistry()
	transport := apiclient.NewTransport(cfg.Services.Timeout)

	provider := identity.NewProvider(identity.Config{
		Issuer:       cfg.Identity.Issuer,
		TokenURL:     cfg.Identity.TokenURL,
		ClientID:     cfg.Identity.ClientID,
		ClientSecret: cfg.Identity.ClientSecret,
	}, identity.NewStore(cfg.Identity.SessionFile),
		identity.WithHTTPClient(transport),
		identity.WithLogger(logger),
		identity.WithMetrics(m),
	)

	styles := ux.NewStyles(cfg.Output.NoColor)
	client := apiclient.New(provider,
		apiclient.WithDoer(transport),
		apiclient.WithNotifier(&ux.LoginNotifier{Out: errOut, Styles: styles}),
		apiclient.WithLogger(logger),
		apiclient.WithMetrics(m),
	)

	formatter, err := ux.NewFormatter(cfg.Output.Format, out, styles)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Registry:  reg,
		Identity:  provider,
		HTTP:      transport,
		Client:    client,
		Tasks:     tasks.NewService(client, cfg.Services.TaskURL),
		Ask:       ask.NewService(client, cfg.Services.AskURL),
		Formatter: formatter,
		Styles:    styles,
		Out:       out,
		ErrOut:    errOut,
		In:        in,

		stopTracing: stopTracing,
	}, nil
}

// Print writes v with the configured formatter.
func (a *App) Print(v any) error {
	return a.Formatter.Format(v)
}

// Close flushes metrics and traces.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(
		metrics.WriteTextfile(a.Config.Metrics.Textfile, a.Registry),
		a.stopTracing(ctx),
	)
}

type appKey struct{}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

// appFrom returns the App built by the root command's pre-run hook.
func appFrom(cmd *cobra.Command) (*App, error) {
	if app, ok := cmd.Context().Value(appKey{}).(*App); ok {
		return app, nil
	}
	return nil, errors.New("application not initialized")
}
