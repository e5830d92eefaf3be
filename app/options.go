package app

import (
	"context"
	"os"
	"time"

	"github.com/kochabx/ratelimit/log"
	"github.com/kochabx/ratelimit/transport"
)

type Option func(*Application)

// WithContext 设置应用的根上下文，上下文取消时应用退出
func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

// WithShutdownTimeout 设置服务器关闭的超时时间
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithCloseTimeout 设置关闭函数的默认超时时间
func WithCloseTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.closeTimeout = timeout
		}
	}
}

// WithSignals 设置触发优雅关闭的信号
func WithSignals(signals ...os.Signal) Option {
	return func(app *Application) {
		if len(signals) > 0 {
			app.signals = append([]os.Signal(nil), signals...)
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(app *Application) {
		if logger != nil {
			app.logger = logger
		}
	}
}

// WithServer 向应用添加服务器，nil 被忽略
func WithServer(servers ...transport.Server) Option {
	return func(app *Application) {
		for _, server := range servers {
			if server != nil {
				app.servers = append(app.servers, server)
			}
		}
	}
}

// WithClose 添加在服务器停止后执行的关闭函数，timeout 为 0 时使用默认超时
func WithClose(name string, fn func(context.Context) error, timeout time.Duration) Option {
	return func(app *Application) {
		if fn == nil {
			app.logger.Warn().Str("name", name).Msg("nil close function ignored")
			return
		}
		app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	}
}
