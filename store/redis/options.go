package redis

import (
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/kochabx/ratelimit/log"
)

// Option 客户端配置选项
type Option func(*clientOptions)

type clientOptions struct {
	// 覆盖配置文件中的值
	password  string
	username  string
	db        int
	poolSize  int
	keyPrefix string

	hooks []redis.Hook

	enableMetrics bool
	enableTracing bool
	enableDebug   bool
	tracingOpts   []redisotel.TracingOption
	metricsOpts   []redisotel.MetricsOption

	logger          *log.Logger
	slowQueryThresh time.Duration
}

func WithPassword(password string) Option {
	return func(o *clientOptions) {
		o.password = password
	}
}

// WithUsername 设置用户名 (Redis 6.0+)
func WithUsername(username string) Option {
	return func(o *clientOptions) {
		o.username = username
	}
}

// WithDB 设置数据库索引（仅单机和哨兵模式有效）
func WithDB(db int) Option {
	return func(o *clientOptions) {
		o.db = db
	}
}

func WithPoolSize(size int) Option {
	return func(o *clientOptions) {
		o.poolSize = size
	}
}

// WithKeyPrefix 设置限流 key 前缀
func WithKeyPrefix(prefix string) Option {
	return func(o *clientOptions) {
		o.keyPrefix = prefix
	}
}

// WithHooks 添加自定义 Hooks
func WithHooks(hooks ...redis.Hook) Option {
	return func(o *clientOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithMetrics 启用 OpenTelemetry Metrics 收集
func WithMetrics(opts ...redisotel.MetricsOption) Option {
	return func(o *clientOptions) {
		o.enableMetrics = true
		o.metricsOpts = opts
	}
}

// WithTracing 启用 OpenTelemetry 分布式追踪
func WithTracing(opts ...redisotel.TracingOption) Option {
	return func(o *clientOptions) {
		o.enableTracing = true
		o.tracingOpts = opts
	}
}

// WithDebug 启用命令日志与慢查询检测
// 注意：每次限流检查都会产生一条日志，仅用于排查问题
func WithDebug(slowQueryThreshold ...time.Duration) Option {
	return func(o *clientOptions) {
		o.enableDebug = true
		if len(slowQueryThreshold) > 0 {
			o.slowQueryThresh = slowQueryThreshold[0]
		}
	}
}

// WithLogger 设置日志记录器，默认使用 log.G
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// applyOptions 应用选项并把覆盖值写回配置
func applyOptions(cfg *Config, opts []Option) *clientOptions {
	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	if o.password != "" {
		cfg.Password = o.password
	}
	if o.username != "" {
		cfg.Username = o.username
	}
	if o.db > 0 {
		cfg.DB = o.db
	}
	if o.poolSize > 0 {
		cfg.PoolSize = o.poolSize
	}
	if o.keyPrefix != "" {
		cfg.KeyPrefix = o.keyPrefix
	}
	return o
}
