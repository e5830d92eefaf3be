package http

import (
	"context"
	"time"

	"github.com/kochabx/ratelimit/core/tag"
	"github.com/kochabx/ratelimit/metrics"
)

type Options struct {
	Metrics  MetricsOption
	Health   HealthOption
	Timeouts TimeoutOption
}

type MetricsOption struct {
	Enabled                   bool                `json:"enabled" mapstructure:"enabled"`
	Path                      string              `json:"path" mapstructure:"path" default:"/metrics"`
	EnabledGoCollector        bool                `json:"enabled_go_collector" mapstructure:"enabled_go_collector"`
	EnabledBuildInfoCollector bool                `json:"enabled_build_info_collector" mapstructure:"enabled_build_info_collector"`
	Prometheus                *metrics.Prometheus `json:"-" mapstructure:"-"` // 默认 metrics.Prom
}

func (m *MetricsOption) init() error {
	if m.Prometheus == nil {
		m.Prometheus = metrics.Prom
	}
	return tag.ApplyDefaults(m)
}

type HealthOption struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path" default:"/health"`
	// Check 返回错误时健康检查响应 503
	Check func(context.Context) error `json:"-" mapstructure:"-"`
}

func (h *HealthOption) init() error {
	return tag.ApplyDefaults(h)
}

type TimeoutOption struct {
	ReadHeader time.Duration `json:"read_header" mapstructure:"read_header" default:"5s"`
	Read       time.Duration `json:"read" mapstructure:"read" default:"30s"`
	Write      time.Duration `json:"write" mapstructure:"write" default:"30s"`
	Idle       time.Duration `json:"idle" mapstructure:"idle" default:"2m"`
}

func (t *TimeoutOption) init() error {
	return tag.ApplyDefaults(t)
}
