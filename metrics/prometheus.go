package metrics

import (
	"regexp"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	Prom = New()
)

var _ Metrics = (*Prometheus)(nil)

type Prometheus struct {
	registry *prometheus.Registry

	goOnce        sync.Once
	buildInfoOnce sync.Once
}

func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
	}

	return p
}

func (p *Prometheus) WithGoCollectorRuntimeMetrics() {
	p.goOnce.Do(func() {
		p.registry.MustRegister(collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
		))
	})
}

func (p *Prometheus) WithBuildInfoCollector() {
	p.buildInfoOnce.Do(func() {
		p.registry.MustRegister(collectors.NewBuildInfoCollector())
	})
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}
