package redis

import (
	"context"
	"runtime"
	"strings"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/ratelimit/log"
)

// Client Redis 统一客户端（支持单机/集群/哨兵模式）
type Client struct {
	client redis.UniversalClient
	config *Config
	logger *log.Logger
}

// New 创建 Redis 客户端并检查连通性，根据配置自动选择单机/集群/哨兵模式
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}

	clientOpts := applyOptions(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := clientOpts.logger
	if logger == nil {
		logger = log.G
	}

	c := &Client{
		config: cfg,
		logger: logger,
		client: redis.NewUniversalClient(buildUniversalOptions(cfg)),
	}

	// 出错时释放连接
	var ok bool
	defer func() {
		if !ok {
			_ = c.client.Close()
		}
	}()

	if err := c.setupHooks(clientOpts); err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	ok = true
	c.logger.Debug().Str("mode", cfg.Mode()).Strs("addrs", cfg.Addrs).Msg("redis client created")
	return c, nil
}

// buildUniversalOptions 构建 redis.UniversalOptions
func buildUniversalOptions(cfg *Config) *redis.UniversalOptions {
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 10 * runtime.GOMAXPROCS(0)
	}

	return &redis.UniversalOptions{
		Addrs:      cfg.Addrs,
		MasterName: cfg.MasterName,
		Username:   cfg.Username,
		Password:   cfg.Password,
		DB:         cfg.DB,
		Protocol:   cfg.Protocol,

		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		PoolSize:        poolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: cfg.MaxIdleTime,
		ConnMaxLifetime: cfg.MaxLifetime,
		PoolTimeout:     cfg.PoolTimeout,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,

		TLSConfig:      cfg.TLSConfig,
		MaxRedirects:   cfg.MaxRedirects,
		ReadOnly:       cfg.ReadOnly,
		RouteByLatency: cfg.RouteByLatency,
		RouteRandomly:  cfg.RouteRandomly,
	}
}

// setupHooks 安装自定义 Hook 与可观测性 Hook
func (c *Client) setupHooks(opts *clientOptions) error {
	for _, hook := range opts.hooks {
		c.client.AddHook(hook)
	}

	if opts.enableTracing {
		if err := redisotel.InstrumentTracing(c.client, opts.tracingOpts...); err != nil {
			return err
		}
	}
	if opts.enableMetrics {
		if err := redisotel.InstrumentMetrics(c.client, opts.metricsOpts...); err != nil {
			return err
		}
	}
	if opts.enableDebug {
		c.client.AddHook(NewDebugHook(c.logger, opts.slowQueryThresh))
	}
	return nil
}

// UniversalClient 返回底层 redis.UniversalClient，供限流脚本执行使用
func (c *Client) UniversalClient() redis.UniversalClient {
	return c.client
}

// Key 以配置的前缀拼接限流 key，例如 Key("api", "burst") => "ratelimit:api:burst"
func (c *Client) Key(parts ...string) string {
	if c.config.KeyPrefix == "" {
		return strings.Join(parts, ":")
	}
	return c.config.KeyPrefix + ":" + strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.client.Close()
	c.logger.Debug().Msg("redis client closed")
	return err
}

// Stats 连接池统计信息
func (c *Client) Stats() *redis.PoolStats {
	return c.client.PoolStats()
}
