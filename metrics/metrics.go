package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics interface {
	Registry() *prometheus.Registry
}

// register 注册收集器，已注册时返回已有的收集器
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
