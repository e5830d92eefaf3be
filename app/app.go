package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/log"
	"github.com/kochabx/ratelimit/transport"
)

var (
	ErrAlreadyStarted = errors.New(500, "application already started")
	ErrClosePanic     = errors.New(500, "close function panicked")
)

// Application 管理服务器和关闭函数的生命周期
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration
	closeTimeout    time.Duration
	signals         []os.Signal
	servers         []transport.Server
	closeFuncs      []CloseFunc
	logger          *log.Logger
	mu              sync.RWMutex
	started         bool
}

// CloseFunc 具有可选超时的关闭函数
type CloseFunc struct {
	Name    string
	Fn      func(context.Context) error
	Timeout time.Duration
}

// Info 应用状态信息
type Info struct {
	Started     bool `json:"started"`
	ServerCount int  `json:"server_count"`
	CloseCount  int  `json:"close_count"`
}

// New 使用给定选项创建新的应用实例
func New(options ...Option) *Application {
	app := &Application{
		shutdownTimeout: 30 * time.Second,
		closeTimeout:    30 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
		logger:          log.G,
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(app)
	}

	return app
}

// AddServer 在启动前向应用添加服务器
func (app *Application) AddServer(server transport.Server) error {
	if server == nil {
		return errors.BadRequest("server cannot be nil")
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.started {
		return ErrAlreadyStarted
	}
	app.servers = append(app.servers, server)
	return nil
}

// RegisterClose 在运行时添加关闭函数
func (app *Application) RegisterClose(name string, fn func(context.Context) error, timeout time.Duration) error {
	if fn == nil {
		return errors.BadRequest("close function %s cannot be nil", name)
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn, Timeout: timeout})
	return nil
}

// Start 启动所有服务器并阻塞，直到收到信号、调用 Stop、根上下文取消或
// 任一服务器异常退出。返回前执行全部关闭函数。
func (app *Application) Start() error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return ErrAlreadyStarted
	}
	app.started = true
	servers := append([]transport.Server(nil), app.servers...)
	signals := append([]os.Signal(nil), app.signals...)
	app.mu.Unlock()

	if len(servers) == 0 {
		app.logger.Info().Msg("no servers configured, waiting for shutdown signal")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	eg, egCtx := errgroup.WithContext(app.ctx)
	for _, server := range servers {
		eg.Go(func() error {
			if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		eg.Go(func() error {
			<-egCtx.Done()

			ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		})
	}

	eg.Go(func() error {
		select {
		case sig := <-sigCh:
			app.logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			app.cancel()
		case <-egCtx.Done():
		}
		return nil
	})

	err := eg.Wait()
	app.runCloseTasks()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop 优雅地停止应用
func (app *Application) Stop() {
	app.cancel()
}

// Info 返回应用状态信息
func (app *Application) Info() Info {
	app.mu.RLock()
	defer app.mu.RUnlock()

	return Info{
		Started:     app.started,
		ServerCount: len(app.servers),
		CloseCount:  len(app.closeFuncs),
	}
}

// runCloseTasks 并发执行所有关闭函数
func (app *Application) runCloseTasks() {
	app.mu.RLock()
	closeFuncs := append([]CloseFunc(nil), app.closeFuncs...)
	app.mu.RUnlock()

	var eg errgroup.Group
	for _, cf := range closeFuncs {
		eg.Go(func() error {
			return app.runCloseTask(cf)
		})
	}

	if err := eg.Wait(); err != nil {
		app.logger.Error().Err(err).Msg("some close functions failed")
	}
}

// runCloseTask 执行单个带超时的关闭函数，panic 转为 ErrClosePanic
func (app *Application) runCloseTask(cf CloseFunc) error {
	timeout := cf.Timeout
	if timeout <= 0 {
		timeout = app.closeTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				app.logger.Error().Interface("panic", r).Str("close", cf.Name).Msg("close function panicked")
				done <- ErrClosePanic
			}
		}()
		done <- cf.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.logger.Error().Err(err).Str("close", cf.Name).Msg("close function failed")
		}
		return err
	case <-ctx.Done():
		app.logger.Warn().Str("close", cf.Name).Msg("close function timed out")
		return ctx.Err()
	}
}
