package observability

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelFor maps a -v count to a log level: warnings by default, info at -v
// and -vv, debug from -vvv on.
func LevelFor(verbosity int) zapcore.Level {
	switch {
	case verbosity >= 3:
		return zapcore.DebugLevel
	case verbosity >= 1:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// NewLogger builds a console logger writing to w (stderr when nil).
func NewLogger(verbosity int, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stderr
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(w),
		LevelFor(verbosity),
	)
	return zap.New(core)
}
