package writer

import (
	"fmt"
	"io"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateMode 日志轮转模式
type RotateMode int

const (
	// RotateModeTime 按时间轮转
	RotateModeTime RotateMode = iota
	// RotateModeSize 按大小轮转
	RotateModeSize
)

func (m RotateMode) String() string {
	switch m {
	case RotateModeTime:
		return "time"
	case RotateModeSize:
		return "size"
	default:
		return "unknown"
	}
}

// UnmarshalText 支持在配置文件中使用 "time" / "size"
func (m *RotateMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "time":
		*m = RotateModeTime
	case "size":
		*m = RotateModeSize
	default:
		return fmt.Errorf("unknown rotate mode: %q", text)
	}
	return nil
}

// timeRotateWriter 按时间轮转的 writer
func timeRotateWriter(config RotateConfig) (io.Writer, error) {
	w, err := rotatelogs.New(
		config.path("%Y%m%d%H%M"),
		rotatelogs.WithLinkName(config.path("")),
		rotatelogs.WithMaxAge(time.Duration(config.TimeRotateConfig.MaxAge)*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(config.TimeRotateConfig.RotationTime)*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create time rotate writer: %w", err)
	}
	return w, nil
}

// sizeRotateWriter 按大小轮转的 writer
func sizeRotateWriter(config RotateConfig) (io.Writer, error) {
	return &lumberjack.Logger{
		Filename:   config.path(""),
		MaxSize:    config.SizeRotateConfig.MaxSize,
		MaxBackups: config.SizeRotateConfig.MaxBackups,
		MaxAge:     config.SizeRotateConfig.MaxAge,
		Compress:   config.SizeRotateConfig.Compress,
	}, nil
}
