// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	*zap.Logger
}

// NewZapLogger adapts [logger] to Logger. Trace and Verbo are logged at the
// debug level.
func NewZapLogger(logger *zap.Logger) Logger {
	return &zapLogger{Logger: logger}
}

func (l *zapLogger) Trace(msg string, fields ...zap.Field) {
	l.Logger.Log(zapcore.DebugLevel, msg, fields...)
}

func (l *zapLogger) Verbo(msg string, fields ...zap.Field) {
	l.Logger.Log(zapcore.DebugLevel, msg, fields...)
}
