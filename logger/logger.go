// Package logger 提供结构化日志
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
)

func init() {
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core := zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stdout), level)
	sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Options 日志初始化选项
type Options struct {
	Level      string
	Path       string // 为空时只输出到stdout
	MaxSizeMB  int
	MaxBackups int
}

// Init configures the process logger. Called once from main; the zero-config
// stdout logger from init covers tests.
func Init(opts Options) {
	SetLevel(opts.Level)

	sink := zapcore.Lock(os.Stdout)
	if opts.Path != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
		sink = zapcore.NewMultiWriteSyncer(sink, rotated)
	}

	core := zapcore.NewCore(newEncoder(), sink, level)
	sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// SetLevel 动态调整日志级别
func SetLevel(name string) {
	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	level.SetLevel(parsed)
}

func newEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func Debugf(format string, args ...interface{}) { sugar.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { sugar.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { sugar.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { sugar.Errorf(format, args...) }

// Sync flushes buffered log entries.
func Sync() {
	_ = sugar.Sync()
}
