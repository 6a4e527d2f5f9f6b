package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
	"github.com/felixgeelhaar/todoask/internal/health"
	"github.com/felixgeelhaar/todoask/internal/ux"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, session and backend reachability",
		Long: `Run diagnostics against the configured services.

Checks that the task and ask services answer, that the identity provider
is reachable when configured, and that a usable session is stored. Exits
non-zero when any check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: instrument("doctor", runDoctor),
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}

	manager := health.NewManager(
		health.NewHTTPChecker("task-service", app.Config.Services.TaskURL, app.HTTP),
		health.NewHTTPChecker("ask-service", app.Config.Services.AskURL, app.HTTP),
	)
	switch idc := app.Config.Identity; {
	case idc.TokenURL != "":
		manager.Register(health.NewHTTPChecker("identity-provider", idc.TokenURL, app.HTTP))
	case idc.Issuer != "":
		manager.Register(health.NewHTTPChecker("identity-provider",
			strings.TrimSuffix(idc.Issuer, "/")+"/.well-known/openid-configuration", app.HTTP))
	}
	manager.Register(health.NewSessionChecker(app.Identity.Store()))

	run := manager.Run(cmd.Context())
	report := doctorReport{Status: run.Status}
	for _, name := range run.Names {
		r := run.Checks[name]
		report.Checks = append(report.Checks, doctorCheck{
			Name:    name,
			Status:  r.Status,
			Message: r.Message,
			Details: r.Details,
			Latency: r.Latency.Round(time.Millisecond).String(),
		})
	}

	if err := app.Print(report); err != nil {
		return err
	}
	if report.Status == health.StatusUnhealthy {
		return apperrors.New(apperrors.ErrCodeHealthCheck, "one or more checks failed")
	}
	return nil
}

type doctorCheck struct {
	Name    string         `json:"name" yaml:"name"`
	Status  health.Status  `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency string         `json:"latency" yaml:"latency"`
}

// doctorReport lists check results in registration order.
type doctorReport struct {
	Status health.Status `json:"status" yaml:"status"`
	Checks []doctorCheck `json:"checks" yaml:"checks"`
}

func (r doctorReport) Render(s ux.Styles) string {
	var b strings.Builder
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "%s %-18s %s\n", statusMark(c.Status, s), c.Name, c.Message)
		if hint, ok := c.Details["suggestion"].(string); ok {
			fmt.Fprintf(&b, "  %s\n", s.Muted.Render(hint))
		}
	}
	b.WriteString(s.Label.Render("Overall: ") + statusMark(r.Status, s) + " " + r.Status.String())
	return b.String()
}

func statusMark(status health.Status, s ux.Styles) string {
	switch status {
	case health.StatusHealthy:
		return s.Success.Render("✓")
	case health.StatusDegraded:
		return s.Warning.Render("!")
	default:
		return s.Error.Render("✗")
	}
}
