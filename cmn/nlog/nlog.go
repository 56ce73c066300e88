// Package nlog is the job-wide logger: a thin global wrapper that every
// other package calls into, backed by zap. Mirrors the call shapes used
// throughout the stats runner (Infoln, Warningln, Errorln, Flush).
package nlog

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ActNone and friends tag the reason a caller asked for a flush; currently
// only used to distinguish a periodic flush from an out-of-band one in logs.
const (
	ActNone = iota
	ActOOB
)

var (
	mu       sync.Mutex
	logger   *zap.Logger
	sugar    *zap.SugaredLogger
	lastOOB  time.Time
	lastTime time.Time
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		l = zap.NewNop()
	}
	logger = l
	sugar = l.Sugar()
}

// SetLevel reconfigures the minimum logged level at runtime ("debug",
// "info", "warn", "error").
func SetLevel(level string) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	logger = logger.WithOptions(zap.IncreaseLevel(lvl))
	sugar = logger.Sugar()
}

func Infoln(args ...any)     { sugar.Info(fmt.Sprintln(args...)) }
func Warningln(args ...any)  { sugar.Warn(fmt.Sprintln(args...)) }
func Errorln(args ...any)    { sugar.Error(fmt.Sprintln(args...)) }
func Infof(f string, a ...any)    { sugar.Infof(f, a...) }
func Warningf(f string, a ...any) { sugar.Warnf(f, a...) }
func Errorf(f string, a ...any)   { sugar.Errorf(f, a...) }

// Flush drains buffered log entries; reason is ActNone or ActOOB for
// out-of-band flushes triggered by a caller-detected anomaly.
func Flush(reason int) {
	mu.Lock()
	lastTime = time.Now()
	if reason == ActOOB {
		lastOOB = lastTime
	}
	mu.Unlock()
	_ = logger.Sync()
}

// Since returns the time elapsed since the last Flush, used by periodic
// housekeeping to decide whether a flush is overdue.
func Since(now int64) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	if lastTime.IsZero() {
		return 0
	}
	return time.Duration(now) - time.Duration(lastTime.UnixNano())
}

// OOB reports whether an out-of-band flush happened since the last
// periodic tick.
func OOB() bool {
	mu.Lock()
	defer mu.Unlock()
	return !lastOOB.IsZero() && lastOOB.After(lastTime.Add(-time.Nanosecond))
}
