package writer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console 创建输出到标准输出的控制台 writer
func Console() zerolog.ConsoleWriter {
	return ConsoleTo(os.Stdout)
}

// ConsoleTo 创建输出到 out 的控制台 writer
func ConsoleTo(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         out,
		TimeFormat:  time.DateTime,
		FormatLevel: formatLevel,
	}
}

// formatLevel 格式化日志级别显示
func formatLevel(i any) string {
	return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
}
