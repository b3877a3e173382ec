// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log formats accepted by NewLogger.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// NewLogger builds the CLI logger writing to w. Debug switches to the zap
// development config (debug level, console encoding); format overrides the
// encoding when set.
func NewLogger(w io.Writer, debug bool, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// Disable automatic stacktraces for non-fatal levels to avoid noisy traces in WARN/INFO logs
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"

	var encoder zapcore.Encoder
	switch format {
	case "":
		if debug {
			encoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
		} else {
			encoder = zapcore.NewJSONEncoder(cfg.EncoderConfig)
		}
	case LogFormatJSON:
		encoder = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	case LogFormatConsole:
		encoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), cfg.Level)
	return zap.New(core), nil
}

// FlowFields returns the key/value pairs identifying one device code flow,
// suitable for SugaredLogger.With. The client id is omitted when empty.
func FlowFields(flowID, tenant, cloud, clientID string) []interface{} {
	fields := []interface{}{"flowID", flowID, "tenant", tenant, "cloud", cloud}
	if clientID != "" {
		fields = append(fields, "clientID", clientID)
	}
	return fields
}
