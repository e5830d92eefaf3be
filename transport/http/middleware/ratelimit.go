package middleware

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/ratelimit/core/policy"
	"github.com/kochabx/ratelimit/core/rule"
	"github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/log"
	"github.com/kochabx/ratelimit/transport/http/response"
)

const (
	HeaderPolicy  = "X-RateLimit-Policy"
	HeaderAllowed = "X-RateLimit-Allowed"

	decisionKey = "ratelimit.decision"
)

var (
	ErrTooManyRequests = errors.TooManyRequests("too many requests")
	ErrCheckFailed     = errors.Internal("rate limit check failed")
)

// Checker 按策略评估请求主体，由 *policy.Engine 实现
type Checker interface {
	Check(ctx context.Context, policy string, id rule.Identifier) (policy.Decision, error)
}

// RateLimitConfig 限流中间件配置
type RateLimitConfig struct {
	Policy    string                  // 策略名
	Key       KeyFunc                 // 主体提取，默认 ClientIP
	FailOpen  bool                    // 规则出错时放行，默认拒绝
	SkipPaths []string                // 跳过限流的路径
	SkipFunc  func(*gin.Context) bool // 动态跳过判断函数
	Logger    *log.Logger             // 自定义日志记录器
}

// RateLimit 创建限流中间件：
//   - 主体提取失败时按错误码响应，例如缺少 token 返回 401
//   - 策略拒绝时返回 429
//   - 规则出错时返回 500，FailOpen 时记录日志并放行
func RateLimit(checker Checker, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Key == nil {
		cfg.Key = ClientIP()
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

		id, err := cfg.Key(c)
		if err != nil {
			response.GinJSONE(c, err)
			return
		}

		d, err := checker.Check(c.Request.Context(), cfg.Policy, id)
		c.Set(decisionKey, d)
		c.Header(HeaderPolicy, cfg.Policy)

		if err != nil {
			if cfg.FailOpen && errors.Code(err) != 404 {
				cfg.Logger.Warn().Err(err).Str("policy", cfg.Policy).Str("key", id.Key()).Msg("rate limit check failed, request allowed")
				c.Next()
				return
			}
			_ = c.Error(err)
			if _, ok := errors.AsError(err); !ok {
				err = ErrCheckFailed.WithCause(err)
			}
			response.GinJSONE(c, err)
			return
		}

		c.Header(HeaderAllowed, strconv.FormatBool(d.Allowed))
		if !d.Allowed {
			response.GinJSONE(c, ErrTooManyRequests.WithMetadata(map[string]string{"policy": cfg.Policy}))
			return
		}

		c.Next()
	}
}

// DecisionFrom 返回 RateLimit 为当前请求记录的评估结果
func DecisionFrom(c *gin.Context) (policy.Decision, bool) {
	v, ok := c.Get(decisionKey)
	if !ok {
		return policy.Decision{}, false
	}
	d, ok := v.(policy.Decision)
	return d, ok
}
