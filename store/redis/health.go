package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/ratelimit/log"
)

// HealthChecker 定期 PING，限流依赖 Redis，不健康时上层可以选择降级
type HealthChecker struct {
	client   redis.UniversalClient
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger

	mu         sync.RWMutex
	lastStatus *HealthStatus
	running    atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

// HealthStatus 健康状态快照
type HealthStatus struct {
	Healthy      bool             `json:"healthy"`
	LastCheck    time.Time        `json:"last_check"`
	Latency      time.Duration    `json:"latency"`
	PoolStats    *redis.PoolStats `json:"-"`
	ErrorMessage string           `json:"error,omitempty"`
}

// NewHealthChecker 创建健康检查器，logger 为空时使用 log.G
func NewHealthChecker(client redis.UniversalClient, interval time.Duration, logger *log.Logger) *HealthChecker {
	if logger == nil {
		logger = log.G
	}
	return &HealthChecker{
		client:   client,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Start 立即检查一次，然后按间隔定期检查
func (hc *HealthChecker) Start() {
	if !hc.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	hc.cancel = cancel
	hc.done = make(chan struct{})

	hc.Check(ctx)
	go hc.run(ctx)

	hc.logger.Info().Dur("interval", hc.interval).Msg("redis health checker started")
}

// Stop 停止检查并等待协程退出
func (hc *HealthChecker) Stop() {
	if !hc.running.CompareAndSwap(true, false) {
		return
	}
	hc.cancel()
	<-hc.done
	hc.logger.Info().Msg("redis health checker stopped")
}

func (hc *HealthChecker) run(ctx context.Context) {
	defer close(hc.done)

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.Check(ctx)
		}
	}
}

// Check 执行一次检查并记录结果
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	status := &HealthStatus{LastCheck: time.Now()}

	start := time.Now()
	err := hc.client.Ping(ctx).Err()
	status.Latency = time.Since(start)

	if err != nil {
		status.ErrorMessage = err.Error()
		hc.logger.Error().Dur("latency", status.Latency).Err(err).Msg("redis health check failed")
	} else {
		status.Healthy = true
		status.PoolStats = hc.client.PoolStats()
		hc.logger.Debug().Dur("latency", status.Latency).Uint32("total_conns", status.PoolStats.TotalConns).Uint32("idle_conns", status.PoolStats.IdleConns).Msg("redis health check success")
	}

	hc.mu.Lock()
	hc.lastStatus = status
	hc.mu.Unlock()

	return status
}

// Status 返回最近一次检查结果的副本
func (hc *HealthChecker) Status() HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	if hc.lastStatus == nil {
		return HealthStatus{ErrorMessage: "not checked yet"}
	}
	return *hc.lastStatus
}

func (hc *HealthChecker) IsHealthy() bool {
	return hc.Status().Healthy
}

// WaitForHealthy 等待健康状态，超时或 ctx 取消时返回 false
func (hc *HealthChecker) WaitForHealthy(ctx context.Context, maxWait time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if hc.IsHealthy() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
