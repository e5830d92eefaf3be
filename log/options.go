package log

import (
	"github.com/rs/zerolog"
)

// Option Logger 选项函数
type Option func(*Logger)

// WithLevel 设置日志级别
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	}
}

// WithCaller 记录调用位置
func WithCaller() Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	}
}

// WithCallerSkip 设置调用栈跳过的帧数
func WithCallerSkip(skip int) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().CallerWithSkipFrameCount(skip).Logger()
	}
}

// WithFields 为所有日志附加固定字段，如服务名
func WithFields(fields map[string]any) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Fields(fields).Logger()
	}
}
