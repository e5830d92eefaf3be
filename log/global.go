package log

import (
	"github.com/rs/zerolog"
)

// G 全局日志实例
var G *Logger

func init() {
	G = New()
}

// SetGlobalLogger 替换全局日志记录器
func SetGlobalLogger(logger *Logger) {
	if logger != nil {
		G = logger
	}
}

// SetGlobalLevel 设置全局日志级别
func SetGlobalLevel(level zerolog.Level) {
	G.Logger = G.Logger.Level(level)
}

func Debug() *zerolog.Event {
	return G.Debug()
}

func Info() *zerolog.Event {
	return G.Info()
}

func Warn() *zerolog.Event {
	return G.Warn()
}

// Error 返回 error 级别的日志事件（带堆栈）
func Error() *zerolog.Event {
	return G.Error().Stack()
}

// Fatal 返回 fatal 级别的日志事件（带堆栈）
func Fatal() *zerolog.Event {
	return G.Fatal().Stack()
}

func Infof(format string, args ...any) {
	G.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	G.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...any) {
	G.Error().Stack().Msgf(format, args...)
}
