package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Option tweaks where and how the logger writes.
type Option func(*options)

type options struct {
	file string
}

// WithFile sends console output to a rotating file instead of stdout.
// Used when the terminal dashboard owns the screen.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// Get returns a singleton logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and options and return the already initialized instance.
func Get(level string, opts ...Option) *Logger {
	once.Do(func() {
		o := options{}
		for _, opt := range opts {
			opt(&o)
		}
		globalLogger = newZapLogger(level, o)
	})
	return globalLogger
}

// Nop returns a logger that discards everything. Meant for tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
