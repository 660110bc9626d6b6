// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package testutil provides the logger used by the consensus tests.
package testutil

import (
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var fatalPanics = zap.WithFatalHook(zapcore.WriteThenPanic)

// TestLogger writes to stdout at the debug level. Fatal panics instead of
// exiting, so tests can assert on conditions the node treats as fatal.
type TestLogger struct {
	*zap.Logger

	level zap.AtomicLevel
	// verbose logs Trace and Verbo entries, skipping their wrapper frame
	verbose *zap.Logger
}

// MakeLogger returns a logger tagged with the test name and, if given, the
// index of the node it belongs to.
func MakeLogger(t testing.TB, node ...int) *TestLogger {
	fields := []zap.Field{zap.String("test", t.Name())}
	if len(node) > 0 {
		fields = append(fields, zap.Int("node", node[0]))
	}

	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	core := zapcore.NewCore(newConsoleEncoder(), zapcore.Lock(os.Stdout), level)
	logger := zap.New(core, zap.AddCaller(), fatalPanics).With(fields...)

	return &TestLogger{
		Logger:  logger,
		level:   level,
		verbose: logger.WithOptions(zap.AddCallerSkip(1)),
	}
}

func newConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(l.String()))
		},
		EncodeTime:       zapcore.TimeEncoderOfLayout("[01-02|15:04:05.000]"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	})
}

// Intercept calls [hook] on every entry that passes the level of the logger.
func (tl *TestLogger) Intercept(hook func(entry zapcore.Entry) error) {
	tl.Logger = tl.Logger.WithOptions(zap.Hooks(hook))
	tl.verbose = tl.verbose.WithOptions(zap.Hooks(hook))
}

// Silence drops everything below the fatal level.
func (tl *TestLogger) Silence() {
	tl.level.SetLevel(zapcore.FatalLevel)
}

func (tl *TestLogger) Trace(msg string, fields ...zap.Field) {
	tl.verbose.Debug(msg, fields...)
}

func (tl *TestLogger) Verbo(msg string, fields ...zap.Field) {
	tl.verbose.Debug(msg, fields...)
}
