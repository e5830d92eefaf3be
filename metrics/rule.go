package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/ratelimit/core/rule"
)

const (
	ResultAllowed = "allowed"
	ResultDenied  = "denied"
	ResultError   = "error"
)

// RuleMetrics 规则评估指标
type RuleMetrics struct {
	Checks   *prometheus.CounterVec   // 评估次数（按结果：allowed/denied/error）
	Duration *prometheus.HistogramVec // 评估耗时
}

// NewRuleMetrics 创建规则指标并注册到 reg，重复调用复用已注册的指标
func NewRuleMetrics(namespace string, reg prometheus.Registerer) *RuleMetrics {
	return &RuleMetrics{
		Checks: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_checks_total",
				Help:      "Total number of rule checks",
			},
			[]string{"rule", "result"},
		)),
		Duration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rule_check_duration_seconds",
				Help:      "Rule check duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"rule"},
		)),
	}
}

// Instrument 包装规则，记录每次评估的结果和耗时。结果与错误原样返回。
func (m *RuleMetrics) Instrument(name string, r rule.Rule) rule.Rule {
	return &instrumented{name: name, rule: r, metrics: m}
}

type instrumented struct {
	name    string
	rule    rule.Rule
	metrics *RuleMetrics
}

func (i *instrumented) Check(ctx context.Context, id rule.Identifier) (bool, error) {
	start := time.Now()
	ok, err := i.rule.Check(ctx, id)
	i.metrics.Duration.WithLabelValues(i.name).Observe(time.Since(start).Seconds())

	result := ResultDenied
	switch {
	case err != nil:
		result = ResultError
	case ok:
		result = ResultAllowed
	}
	i.metrics.Checks.WithLabelValues(i.name, result).Inc()

	return ok, err
}

func (i *instrumented) Unwrap() rule.Rule {
	return i.rule
}
