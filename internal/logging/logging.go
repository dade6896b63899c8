package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. When file is set, every entry is also
// written to it as JSON. The returned func flushes and closes the file.
func New(file string, debug bool) (*zap.Logger, func(), error) {
	var (
		base *zap.Logger
		err  error
	)

	if debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}

	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}

	f, err := OpenLogFile(file)
	if err != nil {
		return nil, nil, err
	}

	logger := AttachFileLogger(base, f, debug)

	cleanup := func() {
		_ = logger.Sync()

		if f != nil {
			_ = f.Close()
		}
	}

	return logger, cleanup, nil
}

func OpenLogFile(logFile string) (*os.File, error) {
	if logFile == "" {
		return nil, nil
	}

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

func AttachFileLogger(base *zap.Logger, file *os.File, debug bool) *zap.Logger {
	if file == nil {
		return base
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level)

	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
