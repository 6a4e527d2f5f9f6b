package log

import (
	"io"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat maps "text" and "console" to FormatText. Anything else is
// JSON.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// Config describes a Logger.
type Config struct {
	Level     Level
	Format    Format
	// Writer defaults to stderr; stdout carries command output.
	Writer    io.Writer
	AddSource bool
	// Service is attached to every record.
	Service   string
}

// CLIConfig keeps the CLI quiet: warnings and up, as text.
func CLIConfig() Config {
	return Config{Level: LevelWarn, Format: FormatText, Writer: os.Stderr, Service: "todoask"}
}

// ServerConfig is used by todoask-devserver: info and up, as JSON.
func ServerConfig() Config {
	return Config{Level: LevelInfo, Format: FormatJSON, Writer: os.Stderr, Service: "todoask-devserver"}
}
