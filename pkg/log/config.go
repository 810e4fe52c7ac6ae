package log

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"` // "json" (default) or "console"
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
}

var global atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	global.Store(&l)
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	ctx := zerolog.New(w).Level(level(cfg.Level)).With().Timestamp()
	if cfg.ServiceName != "" {
		ctx = ctx.Str(FieldService, cfg.ServiceName)
	}
	if cfg.Version != "" {
		ctx = ctx.Str(FieldVersion, cfg.Version)
	}
	return ctx.Logger()
}

// Init replaces the process logger and routes the standard library logger
// through it, so output from dependencies stays structured.
func Init(cfg Config) zerolog.Logger {
	l := New(cfg, os.Stdout)
	global.Store(&l)

	stdlog.SetFlags(0)
	stdlog.SetOutput(l.With().Str("source", "stdlog").Logger())
	return l
}

// L returns the process logger.
func L() zerolog.Logger {
	return *global.Load()
}

// level parses s, defaulting to info when empty or unknown.
func level(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "off" {
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
