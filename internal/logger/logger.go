package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Output is JSON on stderr.
func New() (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// StdLog adapts l for APIs that take a *log.Logger, such as http.Server.
func StdLog(l *zap.SugaredLogger) *log.Logger {
	return zap.NewStdLog(l.Desugar())
}
