package main

import (
	"maps"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/ratelimit/config"
	"github.com/kochabx/ratelimit/core/policy"
	"github.com/kochabx/ratelimit/errors"
	"github.com/kochabx/ratelimit/log"
	"github.com/kochabx/ratelimit/store/redis"
	httptransport "github.com/kochabx/ratelimit/transport/http"
	"github.com/kochabx/ratelimit/transport/http/middleware"
)

// Config ruled 配置文件结构
type Config struct {
	Log      log.Config                   `mapstructure:"log"`
	Server   ServerConfig                 `mapstructure:"server"`
	Redis    RedisConfig                  `mapstructure:"redis"`
	Engine   EngineConfig                 `mapstructure:"engine"`
	Policies map[string]policy.Definition `mapstructure:"policies"`
}

type ServerConfig struct {
	Addr     string                      `mapstructure:"addr" default:":8080"`
	Mode     string                      `mapstructure:"mode" default:"release" validate:"oneof=debug release test"`
	Metrics  httptransport.MetricsOption `mapstructure:"metrics"`
	Health   httptransport.HealthOption  `mapstructure:"health"`
	Timeouts httptransport.TimeoutOption `mapstructure:"timeouts"`
	Guard    GuardConfig                 `mapstructure:"guard"`
}

// GuardConfig 使用策略保护 ruled 自身的 /v1 接口，Policy 为空时不启用
type GuardConfig struct {
	Policy    string   `mapstructure:"policy"`
	Key       string   `mapstructure:"key" default:"ip"` // ip | header:<name> | jwt
	JWTSecret string   `mapstructure:"jwt_secret"`
	FailOpen  bool     `mapstructure:"fail_open"`
	SkipPaths []string `mapstructure:"skip_paths"`
}

type RedisConfig struct {
	redis.Config `mapstructure:",squash"`

	Tracing     bool          `mapstructure:"tracing"`
	Metrics     bool          `mapstructure:"metrics"`
	Debug       bool          `mapstructure:"debug"`
	SlowQuery   time.Duration `mapstructure:"slow_query" default:"100ms"`
	HealthCheck time.Duration `mapstructure:"health_check" default:"10s"`
}

type EngineConfig struct {
	Concurrency int `mapstructure:"concurrency" default:"64" validate:"gt=0"`
}

// loadConfig 读取并校验配置文件，策略定义在构建引擎时校验
func loadConfig(file, envPrefix string) (*config.Config, *Config, error) {
	cfg := new(Config)
	c := config.New(cfg, config.WithFile(file), config.WithEnvPrefix(envPrefix))
	if err := c.Load(); err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

// policies 在读锁下复制策略定义
func policies(c *config.Config, cfg *Config) map[string]policy.Definition {
	var defs map[string]policy.Definition
	c.Read(func() {
		defs = maps.Clone(cfg.Policies)
	})
	return defs
}

// keyFunc 解析 guard.key
func (g GuardConfig) keyFunc() (middleware.KeyFunc, error) {
	switch kind, arg, _ := strings.Cut(g.Key, ":"); kind {
	case "ip":
		return middleware.ClientIP(), nil
	case "header":
		if arg == "" {
			return nil, errors.BadRequest("guard key %q: header name is empty", g.Key)
		}
		return middleware.Header(arg), nil
	case "jwt":
		if g.JWTSecret == "" {
			return nil, errors.BadRequest("guard key jwt requires jwt_secret")
		}
		return middleware.JWTSubject([]byte(g.JWTSecret)), nil
	default:
		return nil, errors.BadRequest("unknown guard key %q", g.Key)
	}
}

// build 返回 guard 中间件，未启用时返回 nil
func (g GuardConfig) build(checker middleware.Checker, logger *log.Logger) (gin.HandlerFunc, error) {
	if g.Policy == "" {
		return nil, nil
	}
	key, err := g.keyFunc()
	if err != nil {
		return nil, err
	}
	return middleware.RateLimit(checker, middleware.RateLimitConfig{
		Policy:    g.Policy,
		Key:       key,
		FailOpen:  g.FailOpen,
		SkipPaths: g.SkipPaths,
		Logger:    logger,
	}), nil
}

