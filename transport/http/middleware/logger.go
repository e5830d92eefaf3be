package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kochabx/ratelimit/log"
)

// LoggerConfig 日志中间件配置
type LoggerConfig struct {
	Header      bool                    // 是否记录请求头
	HandlerName bool                    // 是否记录处理器名称
	SkipPaths   []string                // 跳过记录的路径
	SkipFunc    func(*gin.Context) bool // 动态跳过判断函数
	Logger      *log.Logger             // 自定义日志记录器
}

// Logger 创建访问日志中间件。5xx 记为 error，4xx 记为 warn，其余为 info，
// 被限流的请求带上策略名。
func Logger(cfgs ...LoggerConfig) gin.HandlerFunc {
	cfg := LoggerConfig{}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	skipper := NewSkipper(cfg.SkipPaths, cfg.SkipFunc)

	return func(c *gin.Context) {
		if skipper.Skip(c) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = cfg.Logger.Error()
		case status >= 400:
			event = cfg.Logger.Warn()
		default:
			event = cfg.Logger.Info()
		}

		event = event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if query := c.Request.URL.RawQuery; query != "" {
			event = event.Str("query", query)
		}
		if requestID := c.GetHeader(HeaderRequestID); requestID != "" {
			event = event.Str("request_id", requestID)
		}
		if d, ok := DecisionFrom(c); ok {
			event = event.Str("policy", d.Policy).Bool("allowed", d.Allowed)
		}
		if cfg.HandlerName {
			event = event.Str("handler", c.HandlerName())
		}
		if cfg.Header {
			event = event.Any("headers", c.Request.Header)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			event = event.Str("errors", errs.String())
		}

		event.Send()
	}
}
