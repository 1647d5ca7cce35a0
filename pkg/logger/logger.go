package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *zap.Logger
	sugar        *zap.SugaredLogger
	once         sync.Once
)

// Config controls the shared logger: level and optional rotating file
// output.
type Config struct {
	Level      string // debug, info, warn, error
	OutputPath string // empty for console only
	MaxSize    int    // megabytes per log file
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Init sets up the process-wide logger. Safe to call more than once; only
// the first call takes effect.
func Init(cfg Config) {
	once.Do(func() {
		level := zapcore.InfoLevel
		switch cfg.Level {
		case "debug":
			level = zapcore.DebugLevel
		case "warn":
			level = zapcore.WarnLevel
		case "error":
			level = zapcore.ErrorLevel
		}

		encoderConfig := zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}

		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			level,
		)

		core := consoleCore
		if cfg.OutputPath != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err == nil {
				fileWriter := zapcore.AddSync(&lumberjack.Logger{
					Filename:   cfg.OutputPath,
					MaxSize:    cfg.MaxSize,
					MaxBackups: cfg.MaxBackups,
					MaxAge:     cfg.MaxAge,
					Compress:   cfg.Compress,
				})
				fileCore := zapcore.NewCore(
					zapcore.NewJSONEncoder(encoderConfig),
					fileWriter,
					level,
				)
				core = zapcore.NewTee(consoleCore, fileCore)
			}
		}

		globalLogger = zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
		sugar = globalLogger.Sugar()
	})
}

// S returns the shared sugared logger, initializing defaults if Init was
// never called. Its Infof/Warnf/Errorf/Debugf methods satisfy the Logger
// interfaces accepted around the codebase.
func S() *zap.SugaredLogger {
	if sugar == nil {
		Init(Config{Level: "info"})
	}
	return sugar
}

// Sync flushes buffered log entries.
func Sync() {
	if globalLogger != nil {
		globalLogger.Sync()
	}
}

func Debug(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Debug(msg, fields...)
	}
}

func Info(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Warn(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Error(msg, fields...)
	}
}

func Fatal(msg string, fields ...zap.Field) {
	if globalLogger != nil {
		globalLogger.Fatal(msg, fields...)
	}
}
