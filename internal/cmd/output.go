package cmd

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/todoask/internal/ask"
	"github.com/felixgeelhaar/todoask/internal/config"
	"github.com/felixgeelhaar/todoask/internal/tasks"
	"github.com/felixgeelhaar/todoask/internal/ux"
	"github.com/felixgeelhaar/todoask/internal/version"
)

// taskList renders as a checklist in text mode and as an array otherwise.
type taskList []tasks.Task

func (l taskList) Render(s ux.Styles) string {
	if len(l) == 0 {
		return s.Muted.Render("No tasks yet. Add one with 'todoask tasks add <text>'.")
	}

	var b strings.Builder
	done := 0
	for _, t := range l {
		box, text := "[ ]", s.Pending.Render(t.Task)
		if t.Completed {
			box, text = "[x]", s.Done.Render(t.Task)
			done++
		}
		fmt.Fprintf(&b, "%s %s %s\n", box, text, s.Muted.Render("("+shortID(t.ID)+")"))
	}
	b.WriteString(s.Label.Render(fmt.Sprintf("%d of %d done", done, len(l))))
	return b.String()
}

// taskChange reports a single task mutation.
type taskChange struct {
	Action string     `json:"action" yaml:"action"`
	Task   tasks.Task `json:"task" yaml:"task"`
}

func (c taskChange) Render(s ux.Styles) string {
	return fmt.Sprintf("%s %s %s", s.Success.Render(c.Action), c.Task.Task, s.Muted.Render("("+shortID(c.Task.ID)+")"))
}

// answer is the reply of the ask service.
type answer ask.Answer

func (a answer) Render(_ ux.Styles) string {
	return a.Response
}

// authStatus describes the stored session.
type authStatus struct {
	SignedIn    bool      `json:"signed_in" yaml:"signed_in"`
	Username    string    `json:"username,omitempty" yaml:"username,omitempty"`
	Email       string    `json:"email,omitempty" yaml:"email,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired     bool      `json:"expired" yaml:"expired"`
	SessionFile string    `json:"session_file" yaml:"session_file"`
}

func (a authStatus) Render(s ux.Styles) string {
	if !a.SignedIn {
		return s.Warning.Render("Not signed in.") + "\n" + s.Muted.Render(ux.LoginHint)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Signed in as:"), a.Username)
	if a.Email != "" {
		fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Email:"), a.Email)
	}
	if !a.ExpiresAt.IsZero() {
		expiry := a.ExpiresAt.Local().Format(time.RFC1123)
		if a.Expired {
			expiry = s.Warning.Render(expiry + " (expired)")
		}
		fmt.Fprintf(&b, "%s %s\n", s.Label.Render("Token expires:"), expiry)
	}
	fmt.Fprintf(&b, "%s %s", s.Label.Render("Session file:"), s.Muted.Render(a.SessionFile))
	return b.String()
}

// configView renders the effective configuration as YAML in text mode.
type configView config.Config

func (c configView) Render(_ ux.Styles) string {
	data, err := yaml.Marshal(config.Config(c))
	if err != nil {
		return err.Error()
	}
	return strings.TrimRight(string(data), "\n")
}

// versionView prints the short version unless verbose.
type versionView struct {
	version.Info `yaml:",inline"`
	verbose      bool
}

func (v versionView) Render(_ ux.Styles) string {
	if v.verbose {
		return v.Info.String()
	}
	return "todoask " + v.Short()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
