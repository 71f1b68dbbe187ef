package main

import (
	"io"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/fragments/config"
)

// setupLogging installs the process-wide slog handler and routes the std log
// package through it. Logs go to w so command output on stdout stays clean.
func setupLogging(w io.Writer, env, levelStr string) {
	logger := slog.New(newLogHandler(w, env, levelStr))
	if env == config.EnvProduction {
		logger = logger.With("service", "fragments", "version", version)
	}
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())
}

// newLogHandler returns JSON with an RFC 3339 "ts" field in production and
// colourised tint output otherwise. Development defaults to debug.
func newLogHandler(w io.Writer, env, levelStr string) slog.Handler {
	prod := env == config.EnvProduction

	if levelStr == "" && !prod {
		levelStr = "debug"
	}
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	if !prod {
		return tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			AddSource:  true,
			TimeFormat: time.TimeOnly + ".000",
		})
	}

	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 || a.Key != slog.TimeKey {
			return a
		}
		return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
