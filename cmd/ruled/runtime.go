package main

import (
	"context"
	"fmt"

	"github.com/kochabx/ratelimit/config"
	"github.com/kochabx/ratelimit/core/policy"
	"github.com/kochabx/ratelimit/log"
	"github.com/kochabx/ratelimit/metrics"
	"github.com/kochabx/ratelimit/store/redis"
)

const (
	envPrefix        = "RULED"
	metricsNamespace = "ratelimit"
)

// runtime 进程内共享的组件
type runtime struct {
	conf   *config.Config
	cfg    *Config
	logger *log.Logger
	redis  *redis.Client
	health *redis.HealthChecker
	engine *policy.Engine
}

// newRuntime 按配置构建 logger、redis、metrics 和引擎，redis 未配置时只能使用不依赖计数器的策略
func newRuntime(ctx context.Context, file string) (*runtime, error) {
	conf, cfg, err := loadConfig(file, envPrefix)
	if err != nil {
		return nil, err
	}

	logger, err := log.NewFromConfig(cfg.Log)
	if err != nil {
		return nil, err
	}
	log.SetGlobalLogger(logger)

	rt := &runtime{conf: conf, cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = rt.close(context.Background())
		}
	}()

	var builderOpts []policy.BuilderOption
	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, &cfg.Redis.Config, rt.redisOptions()...)
		if err != nil {
			return nil, err
		}
		rt.redis = client
		builderOpts = append(builderOpts, policy.WithRedis(client.UniversalClient(), cfg.Redis.KeyPrefix))
	}
	if cfg.Server.Metrics.Enabled {
		reg := metrics.Prom.Registry()
		builderOpts = append(builderOpts, policy.WithMetrics(metrics.NewRuleMetrics(metricsNamespace, reg)))
	}

	rt.engine, err = policy.NewEngine(
		policy.NewBuilder(builderOpts...),
		policy.WithConcurrency(cfg.Engine.Concurrency),
		policy.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if err := rt.engine.Load(policies(conf, cfg)); err != nil {
		return nil, err
	}

	ok = true
	return rt, nil
}

func (rt *runtime) redisOptions() []redis.Option {
	opts := []redis.Option{redis.WithLogger(rt.logger)}
	if rt.cfg.Redis.Tracing {
		opts = append(opts, redis.WithTracing())
	}
	if rt.cfg.Redis.Metrics {
		opts = append(opts, redis.WithMetrics())
	}
	if rt.cfg.Redis.Debug {
		opts = append(opts, redis.WithDebug(rt.cfg.Redis.SlowQuery))
	}
	return opts
}

// reload 配置文件变更后重建全部策略，失败时保留旧策略
func (rt *runtime) reload() {
	defs := policies(rt.conf, rt.cfg)
	if err := rt.engine.Load(defs); err != nil {
		rt.logger.Error().Err(err).Msg("reload policies failed")
	}
}

// healthCheck 未配置 redis 时始终健康
func (rt *runtime) healthCheck(ctx context.Context) error {
	if rt.redis == nil {
		return nil
	}
	if rt.health != nil {
		if st := rt.health.Status(); !st.LastCheck.IsZero() && !st.Healthy {
			return fmt.Errorf("%w: %s", redis.ErrUnhealthy, st.ErrorMessage)
		}
		return nil
	}
	return rt.redis.Ping(ctx)
}

func (rt *runtime) startHealth() {
	if rt.redis == nil || rt.cfg.Redis.HealthCheck <= 0 {
		return
	}
	rt.health = redis.NewHealthChecker(rt.redis.UniversalClient(), rt.cfg.Redis.HealthCheck, rt.logger)
	rt.health.Start()
}

func (rt *runtime) close(context.Context) error {
	if rt.health != nil {
		rt.health.Stop()
	}
	if rt.engine != nil {
		_ = rt.engine.Close()
	}
	var err error
	if rt.redis != nil {
		err = rt.redis.Close()
	}
	if rt.logger != nil {
		_ = rt.logger.Close()
	}
	return err
}
