// Package audit writes sensor events as JSON lines to a rotating file.
package audit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"sensor_fleet/internal/models"
)

// Options configure the rotating audit file.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Recorder appends one JSON object per sensor event.
type Recorder struct {
	log    *zap.Logger
	closer func() error
	mu     sync.Mutex
	closed bool
}

// New opens (or creates) the audit file described by o.
func New(o Options) *Recorder {
	lj := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   o.Compress,
	}
	r := newRecorder(zapcore.AddSync(lj))
	r.closer = lj.Close
	return r
}

func newRecorder(ws zapcore.WriteSyncer) *Recorder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		MessageKey:     "type",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), ws, zapcore.InfoLevel)
	return &Recorder{log: zap.New(core), closer: func() error { return nil }}
}

// Record writes e. Calls after Close are dropped.
func (r *Recorder) Record(e models.SensorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	fields := []zap.Field{
		zap.String("event_id", e.EventID),
		zap.Time("occurred_at", at.UTC()),
		zap.String("sensor", e.SensorName),
		zap.String("description", e.Description),
	}
	if e.Metadata != nil {
		fields = append(fields, zap.Any("metadata", e.Metadata))
	}
	r.log.Info(e.Type, fields...)
}

// Close flushes and releases the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	_ = r.log.Sync()
	return r.closer()
}
