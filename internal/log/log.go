// Package log wraps logrus with the helpers the rest of this tree calls
// (log.Errorf, log.Infof, log.Debugf) plus a log.V verbosity gate, matching the shape of
// the overlord lib/log package the command and server packages expect.
package log

import (
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Config is embeddable by server config structs, the same way
// config.ServerConfig embeds *log.Config in the teacher tree.
type Config struct {
	Level  string `toml:"log_level"`
	Stdout bool   `toml:"log_stdout"`
}

var (
	std     = logrus.New()
	verbose int32
)

func init() {
	std.SetOutput(os.Stderr)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Init applies a Config to the package-level logger. Safe to call once at
// startup; nil leaves defaults (info level, stderr) in place.
func Init(cfg *Config) {
	if cfg == nil {
		return
	}
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		std.SetLevel(lvl)
	}
	if cfg.Stdout {
		std.SetOutput(os.Stdout)
	}
	if std.IsLevelEnabled(logrus.DebugLevel) {
		atomic.StoreInt32(&verbose, 1)
	}
}

// V reports whether verbose logging at the given level is enabled.
// Mirrors the teacher's log.V(1) gate used before building slowlog-style
// debug strings that would otherwise always be allocated.
func V(level int32) bool {
	return level <= atomic.LoadInt32(&verbose)
}

func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }

// WithField exposes the underlying logrus entry for call sites that want
// structured fields (connection id, replica address, ...).
func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}
