// Package logging builds the structured zap logger used by the serve daemon.
// CLI commands print styled terminal output instead and never log.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation policy for --log-file output.
const (
	maxSizeMB  = 50
	maxBackups = 3
	maxAgeDays = 14
)

// New builds the daemon logger. Console lines go to stderr; when file is
// non-empty a JSON copy also goes to a size-rotated file.
func New(file string, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), level),
	}
	if file != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB, // megabytes
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), rotated, level))
	}

	return zap.New(zapcore.NewTee(cores...))
}
