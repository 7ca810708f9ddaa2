package logger

import (
	"errors"
	"os"

	"github.com/foomo/grabber/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

var (
	ErrNoOutput   = errors.New("at least one log output (console or file) must be enabled")
	ErrNoFilePath = errors.New("log file path must be set when file logging is enabled")
)

// New builds a logger teeing into the enabled console and file outputs. Every
// output falls back to the global level unless it sets its own.
func New(conf config.Log) (*zap.Logger, error) {
	globalLevel := ParseLevel(conf.Level)
	cores := []zapcore.Core{}
	if conf.Console.Enabled {
		cores = append(cores, zapcore.NewCore(
			newEncoder(conf.Console.Format),
			zapcore.Lock(os.Stderr),
			resolveLevel(conf.Console.Level, globalLevel),
		))
	}
	if conf.File.Enabled {
		if conf.File.Path == "" {
			return nil, ErrNoFilePath
		}
		cores = append(cores, zapcore.NewCore(
			newEncoder(conf.File.Format),
			newFileWriter(conf.File),
			resolveLevel(conf.File.Level, globalLevel),
		))
	}
	switch len(cores) {
	case 0:
		return nil, ErrNoOutput
	case 1:
		return zap.New(cores[0]), nil
	default:
		return zap.New(zapcore.NewTee(cores...)), nil
	}
}

// ParseLevel maps a level name to a zap level, unknown names become info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func resolveLevel(level string, globalLevel zapcore.Level) zapcore.Level {
	if level == "" {
		return globalLevel
	}
	return ParseLevel(level)
}

func newEncoder(format string) zapcore.Encoder {
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if format == FormatText {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func newFileWriter(conf config.LogFile) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   conf.Path,
		MaxSize:    conf.MaxSize,
		MaxAge:     conf.MaxAge,
		MaxBackups: conf.MaxBackups,
		Compress:   conf.Compress,
	})
}
