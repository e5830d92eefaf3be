package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/ratelimit/core/tag"
	"github.com/kochabx/ratelimit/log/writer"
)

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	closer io.Closer // 文件 writer 的资源清理
}

// Close 关闭日志记录器，释放文件句柄
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// newLogger 统一的 Logger 构建方法
func newLogger(w io.Writer, opts ...Option) *Logger {
	logger := &Logger{
		Logger: zerolog.New(w).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(logger)
	}
	return logger
}

// New 创建输出到控制台的 Logger
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewWriter 创建输出到任意 writer 的 Logger，测试中常用于捕获输出
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFile 创建文件输出的 Logger
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	w, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(w, opts...)
	if closer, ok := w.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}

// NewMulti 创建同时输出到文件和控制台的 Logger
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	fw, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(zerolog.MultiLevelWriter(fw, writer.Console()), opts...)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}

// NewFromConfig 根据配置创建 Logger
func NewFromConfig(c Config, opts ...Option) (*Logger, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	opts = append([]Option{WithLevel(level)}, opts...)
	if c.Caller {
		opts = append(opts, WithCaller())
	}

	switch c.Output {
	case OutputConsole, "":
		return New(opts...), nil
	case OutputFile:
		return NewFile(c.File, opts...)
	case OutputMulti:
		return NewMulti(c.File, opts...)
	default:
		return nil, fmt.Errorf("unsupported log output: %s", c.Output)
	}
}
