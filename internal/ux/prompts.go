package ux

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// LoginForm holds the values collected by the sign-in prompt.
type LoginForm struct {
	Username string
	Password string
}

// PromptLogin asks for whichever of username and password is missing.
func PromptLogin(form LoginForm) (LoginForm, error) {
	var fields []huh.Field

	if form.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Placeholder("you@example.com").
			Validate(required("username")).
			Value(&form.Username))
	}
	if form.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(required("password")).
			Value(&form.Password))
	}
	if len(fields) == 0 {
		return form, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return form, fmt.Errorf("prompt failed: %w", err)
	}

	form.Username = strings.TrimSpace(form.Username)
	return form, nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
