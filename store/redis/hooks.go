package redis

import (
	"context"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/ratelimit/log"
)

// DebugHook 记录命令执行情况并检测慢查询
type DebugHook struct {
	logger          *log.Logger
	slowQueryThresh time.Duration // 0 表示不检测慢查询
}

func NewDebugHook(logger *log.Logger, slowQueryThresh time.Duration) *DebugHook {
	if logger == nil {
		logger = log.G
	}
	return &DebugHook{
		logger:          logger,
		slowQueryThresh: slowQueryThresh,
	}
}

func (h *DebugHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		duration := time.Since(start)

		if err != nil {
			h.logger.Error().Str("network", network).Str("addr", addr).Dur("duration", duration).Err(err).Msg("redis dial failed")
		} else {
			h.logger.Debug().Str("network", network).Str("addr", addr).Dur("duration", duration).Msg("redis dial success")
		}
		return conn, err
	}
}

func (h *DebugHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.report(cmd.FullName(), 1, time.Since(start), err)
		return err
	}
}

func (h *DebugHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.report("pipeline", len(cmds), time.Since(start), err)
		return err
	}
}

// report 按耗时与错误选择日志级别
func (h *DebugHook) report(name string, count int, duration time.Duration, err error) {
	// redis.Nil 表示 key 不存在，不是错误
	if err == redis.Nil {
		err = nil
	}

	switch {
	case h.slowQueryThresh > 0 && duration > h.slowQueryThresh:
		h.logger.Warn().Str("cmd", name).Int("count", count).Dur("duration", duration).Dur("threshold", h.slowQueryThresh).Err(err).Msg("slow redis command")
	case err != nil:
		h.logger.Warn().Str("cmd", name).Int("count", count).Dur("duration", duration).Err(err).Msg("redis command failed")
	default:
		h.logger.Debug().Str("cmd", name).Int("count", count).Dur("duration", duration).Msg("redis command success")
	}
}
