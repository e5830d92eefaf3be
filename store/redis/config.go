package redis

import (
	"crypto/tls"
	"time"

	"github.com/kochabx/ratelimit/core/tag"
)

// Config Redis 统一配置（支持单机/集群/哨兵模式）
type Config struct {
	// Addrs Redis 地址列表
	// 单机模式: ["localhost:6379"]
	// 集群模式: ["node1:6379", "node2:6379", "node3:6379"]
	// 哨兵模式: ["sentinel1:26379", "sentinel2:26379"]
	Addrs []string `json:"addrs" mapstructure:"addrs"`

	// MasterName 哨兵模式的主节点名称
	MasterName string `json:"master_name" mapstructure:"master_name"`

	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`

	// DB 数据库索引，集群模式忽略此字段
	DB int `json:"db" mapstructure:"db"`

	// Protocol 2: RESP2, 3: RESP3 (Redis 6.0+)
	Protocol int `json:"protocol" mapstructure:"protocol" default:"3"`

	DialTimeout  time.Duration `json:"dial_timeout" mapstructure:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `json:"read_timeout" mapstructure:"read_timeout" default:"3s"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout" default:"3s"`

	// PoolSize 连接池最大连接数，0 表示 10 * GOMAXPROCS
	PoolSize     int           `json:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" mapstructure:"min_idle_conns"`
	MaxIdleTime  time.Duration `json:"max_idle_time" mapstructure:"max_idle_time" default:"5m"`
	MaxLifetime  time.Duration `json:"max_lifetime" mapstructure:"max_lifetime"`
	PoolTimeout  time.Duration `json:"pool_timeout" mapstructure:"pool_timeout" default:"4s"`

	// MaxRetries -1 禁用重试，0 使用默认值 3
	MaxRetries      int           `json:"max_retries" mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `json:"min_retry_backoff" mapstructure:"min_retry_backoff" default:"8ms"`
	MaxRetryBackoff time.Duration `json:"max_retry_backoff" mapstructure:"max_retry_backoff" default:"512ms"`

	// TLSConfig 设置后使用 TLS 连接
	TLSConfig *tls.Config `json:"-" mapstructure:"-"`

	// 集群特有配置
	MaxRedirects   int  `json:"max_redirects" mapstructure:"max_redirects" default:"3"`
	ReadOnly       bool `json:"read_only" mapstructure:"read_only"`
	RouteByLatency bool `json:"route_by_latency" mapstructure:"route_by_latency"`
	RouteRandomly  bool `json:"route_randomly" mapstructure:"route_randomly"`

	// KeyPrefix 限流计数器 key 的公共前缀
	KeyPrefix string `json:"key_prefix" mapstructure:"key_prefix" default:"ratelimit"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

// Single 创建单机模式配置
func Single(addr string) *Config {
	return &Config{Addrs: []string{addr}}
}

// Cluster 创建集群模式配置
func Cluster(addrs ...string) *Config {
	return &Config{Addrs: addrs}
}

// Sentinel 创建哨兵模式配置
func Sentinel(masterName string, addrs ...string) *Config {
	return &Config{Addrs: addrs, MasterName: masterName}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return ErrEmptyAddrs
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Enabled 未配置地址时视为未启用 Redis
func (c *Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func (c *Config) IsSentinel() bool {
	return c.MasterName != ""
}

func (c *Config) IsCluster() bool {
	return len(c.Addrs) > 1 && c.MasterName == ""
}

func (c *Config) IsSingle() bool {
	return len(c.Addrs) == 1 && c.MasterName == ""
}

// Mode 返回客户端模式名称
func (c *Config) Mode() string {
	switch {
	case c.IsSentinel():
		return "sentinel"
	case c.IsCluster():
		return "cluster"
	default:
		return "single"
	}
}
