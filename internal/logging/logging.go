// Package logging builds structured loggers for covgate tools.
package logging

import (
	"encoding"
	"fmt"
	"io"
	"log/slog"
)

// Level represents a log level.
type Level int

const (
	// LevelDebug also shows every coverage skip with its reason.
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelValueMap = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	v, ok := levelValueMap[l]
	if !ok {
		return fmt.Sprintf("invalid(%d)", l)
	}

	return v
}

var _ encoding.TextUnmarshaler = (*Level)(nil)

func (l *Level) UnmarshalText(b []byte) error {
	text := string(b)
	for k, v := range levelValueMap {
		if v == text {
			*l = k
			return nil
		}
	}

	return fmt.Errorf("unknown log level %q", text)
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Format represents a log output format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

var formatValueMap = map[Format]string{
	FormatText: "text",
	FormatJSON: "json",
}

func (f Format) String() string {
	v, ok := formatValueMap[f]
	if !ok {
		return fmt.Sprintf("invalid(%d)", f)
	}

	return v
}

var _ encoding.TextUnmarshaler = (*Format)(nil)

func (f *Format) UnmarshalText(b []byte) error {
	text := string(b)
	for k, v := range formatValueMap {
		if v == text {
			*f = k
			return nil
		}
	}

	return fmt.Errorf("unknown log format %q", text)
}

// New creates a logger writing to w.
func New(w io.Writer, level Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level.slog(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// No timestamps.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
