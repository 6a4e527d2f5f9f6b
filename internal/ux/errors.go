package ux

import (
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// RenderError writes err for humans: the message, then any suggestions
// collected from the AppErrors in its chain.
func RenderError(w io.Writer, err error, styles Styles) {
	if err == nil {
		return
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		fmt.Fprintln(w, styles.Error.Render("Error:")+" "+err.Error())
		if s := suggestFor(err); s != "" {
			fmt.Fprintln(w, styles.Muted.Render("Suggestion: "+s))
		}
		return
	}

	msg := appErr.Message
	if appErr.Cause != nil {
		msg += ": " + causeMessage(appErr.Cause)
	}
	fmt.Fprintln(w, styles.Error.Render("Error:")+" "+msg+" "+styles.Muted.Render("["+string(appErr.Code)+"]"))

	suggestions := collectSuggestions(err)
	if len(suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.Label.Render("Suggestions:"))
		for _, s := range suggestions {
			fmt.Fprintln(w, "  • "+s)
		}
	}
	if appErr.DocsURL != "" {
		fmt.Fprintln(w, styles.Muted.Render("Documentation: "+appErr.DocsURL))
	}
}

// causeMessage renders a cause without repeating nested suggestion blocks.
func causeMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Message + ": " + causeMessage(appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}

func collectSuggestions(err error) []string {
	var out []string
	seen := map[string]bool{}
	for err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			for _, s := range appErr.Suggestions {
				if !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return out
}

// suggestFor adds a hint to errors that carry no suggestions of their own.
func suggestFor(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no route to host"):
		return "Check that the service URLs in 'todoask config view' are reachable"
	case strings.Contains(msg, "permission denied"):
		return "Check file permissions of ~/.todoask"
	case strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag"):
		return "Run 'todoask --help' for usage"
	}
	return ""
}
