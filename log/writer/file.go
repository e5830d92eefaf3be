package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Mode             RotateMode
	Filepath         string
	Filename         string
	FileExt          string
	TimeRotateConfig TimeRotateConfig
	SizeRotateConfig SizeRotateConfig
}

// TimeRotateConfig 按时间轮转配置
type TimeRotateConfig struct {
	MaxAge       int // 日志保留时间(小时)
	RotationTime int // 轮转时间间隔(小时)
}

// SizeRotateConfig 按大小轮转配置
type SizeRotateConfig struct {
	MaxSize    int  // 单个日志文件最大大小(MB)
	MaxBackups int  // 保留的旧日志文件数量
	MaxAge     int  // 日志文件保留天数
	Compress   bool // 是否压缩旧日志文件
}

// File 按轮转模式创建文件 writer
func File(config RotateConfig) (io.Writer, error) {
	switch config.Mode {
	case RotateModeTime:
		return timeRotateWriter(config)
	case RotateModeSize:
		return sizeRotateWriter(config)
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %v", config.Mode)
	}
}

// path 返回日志文件路径，format 非空时插入到文件名与扩展名之间
func (c *RotateConfig) path(format string) string {
	var b strings.Builder
	b.WriteString(c.Filename)
	if format != "" {
		b.WriteByte('.')
		b.WriteString(format)
	}
	b.WriteByte('.')
	b.WriteString(c.FileExt)
	return filepath.Join(c.Filepath, b.String())
}
