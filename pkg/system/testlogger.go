package system

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger returns a sugared logger that writes through t.Log at debug
// level, so log output only shows up for failing or verbose tests. Stacktraces
// are limited to panics to keep normal test logs free of stack frames.
func NewTestLogger(t zaptest.TestingT) *zap.SugaredLogger {
	return zaptest.NewLogger(t,
		zaptest.Level(zap.DebugLevel),
		zaptest.WrapOptions(zap.AddStacktrace(zap.DPanicLevel)),
	).Sugar()
}
