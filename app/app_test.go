package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer 阻塞到 Shutdown 被调用
type fakeServer struct {
	runErr    error
	stopped   chan struct{}
	shutdowns atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (s *fakeServer) Run() error {
	if s.runErr != nil {
		return s.runErr
	}
	<-s.stopped
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	if s.shutdowns.Add(1) == 1 {
		close(s.stopped)
	}
	return nil
}

func startAsync(app *Application) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Start() }()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return")
		return nil
	}
}

func TestNew(t *testing.T) {
	app := New(WithServer(newFakeServer(), nil, newFakeServer()))

	info := app.Info()
	assert.Equal(t, 2, info.ServerCount)
	assert.False(t, info.Started)
}

func TestStopShutsDownServersAndRunsClose(t *testing.T) {
	s1, s2 := newFakeServer(), newFakeServer()
	var closed atomic.Bool
	app := New(
		WithServer(s1, s2),
		WithClose("engine", func(context.Context) error {
			closed.Store(true)
			return nil
		}, time.Second),
	)

	done := startAsync(app)
	time.Sleep(50 * time.Millisecond)
	assert.True(t, app.Info().Started)
	app.Stop()

	require.NoError(t, wait(t, done))
	assert.EqualValues(t, 1, s1.shutdowns.Load())
	assert.EqualValues(t, 1, s2.shutdowns.Load())
	assert.True(t, closed.Load())
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app := New(WithContext(ctx), WithServer(newFakeServer()))

	done := startAsync(app)
	cancel()
	assert.NoError(t, wait(t, done))
}

func TestServerErrorStopsApplication(t *testing.T) {
	broken := newFakeServer()
	broken.runErr = errors.New("listen tcp :8080: bind: address already in use")
	healthy := newFakeServer()

	var closed atomic.Bool
	app := New(WithServer(broken, healthy), WithClose("redis", func(context.Context) error {
		closed.Store(true)
		return nil
	}, 0))

	err := wait(t, startAsync(app))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
	assert.EqualValues(t, 1, healthy.shutdowns.Load())
	assert.True(t, closed.Load(), "close functions run after a failed start")
}

func TestStartTwice(t *testing.T) {
	app := New()
	done := startAsync(app)
	time.Sleep(50 * time.Millisecond)

	assert.ErrorIs(t, app.Start(), ErrAlreadyStarted)
	app.Stop()
	assert.NoError(t, wait(t, done))
}

func TestAddServer(t *testing.T) {
	app := New()
	require.NoError(t, app.AddServer(newFakeServer()))
	assert.Equal(t, 1, app.Info().ServerCount)
	assert.Error(t, app.AddServer(nil))

	app.started = true
	assert.ErrorIs(t, app.AddServer(newFakeServer()), ErrAlreadyStarted)
}

func TestRegisterClose(t *testing.T) {
	app := New()
	var calls atomic.Int32
	require.NoError(t, app.RegisterClose("a", func(context.Context) error {
		calls.Add(1)
		return nil
	}, time.Second))
	assert.Error(t, app.RegisterClose("nil", nil, time.Second))
	assert.Equal(t, 1, app.Info().CloseCount)

	app.runCloseTasks()
	assert.EqualValues(t, 1, calls.Load())
}

func TestCloseFuncPanic(t *testing.T) {
	app := New()
	err := app.runCloseTask(CloseFunc{Name: "panic", Fn: func(context.Context) error {
		panic("test panic")
	}, Timeout: time.Second})
	assert.ErrorIs(t, err, ErrClosePanic)
}

func TestCloseFuncTimeout(t *testing.T) {
	app := New(WithCloseTimeout(100 * time.Millisecond))

	start := time.Now()
	err := app.runCloseTask(CloseFunc{Name: "slow", Fn: func(context.Context) error {
		time.Sleep(2 * time.Second)
		return nil
	}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOptionValidation(t *testing.T) {
	app := New(
		WithShutdownTimeout(0),
		WithCloseTimeout(0),
		WithShutdownTimeout(5*time.Second),
		WithClose("nil", nil, 0),
		WithLogger(nil),
	)

	assert.Equal(t, 5*time.Second, app.shutdownTimeout)
	assert.Equal(t, 30*time.Second, app.closeTimeout)
	assert.Equal(t, 0, app.Info().CloseCount)
	assert.NotNil(t, app.logger)
}
