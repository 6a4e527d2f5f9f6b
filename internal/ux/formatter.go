package ux

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Renderer is implemented by command results with a styled text form.
type Renderer interface {
	Render(styles Styles) string
}

// Formatter writes command results in one output format.
type Formatter struct {
	w      io.Writer
	styles Styles
	encode func(f *Formatter, v any) error
}

var encoders = map[string]func(f *Formatter, v any) error{
	"text": (*Formatter).text,
	"json": (*Formatter).json,
	"yaml": (*Formatter).yaml,
}

// NewFormatter returns the formatter for format: text (the default), json
// or yaml. Text output uses styles.
func NewFormatter(format string, w io.Writer, styles Styles) (*Formatter, error) {
	if format == "" {
		format = "text"
	}
	encode, ok := encoders[format]
	if !ok {
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
	return &Formatter{w: w, styles: styles, encode: encode}, nil
}

// Format writes v.
func (f *Formatter) Format(v any) error {
	return f.encode(f, v)
}

func (f *Formatter) json(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *Formatter) yaml(v any) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// text accepts a Renderer, a fmt.Stringer or a string.
func (f *Formatter) text(v any) error {
	var out string
	switch v := v.(type) {
	case Renderer:
		out = v.Render(f.styles)
	case fmt.Stringer:
		out = v.String()
	case string:
		out = v
	default:
		return fmt.Errorf("text output not supported for %T", v)
	}
	_, err := fmt.Fprintln(f.w, out)
	return err
}
