package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger

func init() {
	// tests and tools log at info until Initialize is called
	Initialize("info", false)
}

// Initialize sets up the global logger on stdout.
func Initialize(level string, useJSON bool) {
	InitializeTo(os.Stdout, level, useJSON)
}

// InitializeTo is Initialize with an explicit destination.
func InitializeTo(w io.Writer, level string, useJSON bool) {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(level),
		AddSource:   true,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	if useJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// RedactToken keeps only a short prefix of a bearer key, enough to correlate log lines.
func RedactToken(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:6] + "…"
}

// redactAttr masks credentials logged by mistake. Bearer keys keep their prefix.
func redactAttr(groups []string, a slog.Attr) slog.Attr {
	switch strings.ToLower(a.Key) {
	case "token", "token_key":
		if a.Value.Kind() == slog.KindString {
			return slog.String(a.Key, RedactToken(a.Value.String()))
		}
	case "password", "api_key", "secret", "authorization":
		return slog.String(a.Key, "***")
	}
	return a
}

func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
