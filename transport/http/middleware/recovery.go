package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	kerrors "github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/log"
	"github.com/kochabx/ratelimit/transport/http/response"
)

var ErrInternal = kerrors.Internal("internal server error")

// RecoveryConfig Recovery 中间件配置
type RecoveryConfig struct {
	StackTrace bool        // 是否记录堆栈信息
	Logger     *log.Logger // 自定义日志记录器
}

// Recovery 恢复 panic 并返回 500 响应；客户端断开的连接只记录告警
func Recovery(cfgs ...RecoveryConfig) gin.HandlerFunc {
	cfg := RecoveryConfig{StackTrace: true}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			request, _ := httputil.DumpRequest(c.Request, false)

			if isBrokenPipe(r) {
				cfg.Logger.Warn().Str("error", fmt.Sprint(r)).Bytes("request", request).Msg("broken pipe")
				_ = c.Error(fmt.Errorf("%v", r))
				c.Abort()
				return
			}

			event := cfg.Logger.Error().Str("error", fmt.Sprint(r)).Bytes("request", request)
			if cfg.StackTrace {
				event = event.Bytes("stack", debug.Stack())
			}
			event.Msg("panic recovered")

			response.GinJSONE(c, ErrInternal)
		}()
		c.Next()
	}
}

func isBrokenPipe(r any) bool {
	err, ok := r.(error)
	if !ok {
		return false
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var ne *net.OpError
	if errors.As(err, &ne) {
		var se *os.SyscallError
		if errors.As(ne.Err, &se) {
			msg := strings.ToLower(se.Error())
			return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
		}
	}
	return false
}
