package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kochabx/ratelimit/log"
	"github.com/kochabx/ratelimit/transport"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"
)

// Meta is the metadata of the server.
type Meta struct {
	Name string
}

type Server struct {
	meta    Meta
	options Options
	server  *http.Server
}

type Option func(*Server)

func WithMeta(meta Meta) Option {
	return func(s *Server) {
		s.meta = meta
	}
}

func WithMetricsOptions(metrics MetricsOption) Option {
	return func(s *Server) {
		if err := metrics.init(); err != nil {
			log.Error().Err(err).Send()
			return
		}
		s.options.Metrics = metrics
	}
}

func WithHealthOptions(health HealthOption) Option {
	return func(s *Server) {
		if err := health.init(); err != nil {
			log.Error().Err(err).Send()
			return
		}
		s.options.Health = health
	}
}

func WithTimeoutOptions(timeouts TimeoutOption) Option {
	return func(s *Server) {
		if err := timeouts.init(); err != nil {
			log.Error().Err(err).Send()
			return
		}
		s.options.Timeouts = timeouts
	}
}

func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	t := s.options.Timeouts
	s.server.ReadHeaderTimeout = t.ReadHeader
	s.server.ReadTimeout = t.Read
	s.server.WriteTimeout = t.Write
	s.server.IdleTimeout = t.Idle

	additionalHandlers(s)

	return s
}

func (s *Server) Run() error {
	if s.meta.Name == "" {
		s.meta.Name = defaultName
	}

	if ok := transport.ValidateAddress(s.server.Addr); !ok {
		log.Warn().Msgf("invalid address %s, using default address: %s", s.server.Addr, defaultAddr)
		s.server.Addr = defaultAddr
	}
	log.Info().Msgf("%s server listening on %s", s.meta.Name, s.server.Addr)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, including metrics and health routes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func additionalHandlers(s *Server) {
	if r, ok := s.server.Handler.(*gin.Engine); ok {
		handleMetrics(s, r)
		handleHealth(s, r)
	}
}

func handleMetrics(s *Server, r *gin.Engine) {
	m := s.options.Metrics
	if !m.Enabled {
		return
	}
	if m.EnabledGoCollector {
		m.Prometheus.WithGoCollectorRuntimeMetrics()
	}
	if m.EnabledBuildInfoCollector {
		m.Prometheus.WithBuildInfoCollector()
	}

	r.GET(m.Path, gin.WrapH(promhttp.HandlerFor(m.Prometheus.Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})))
}

func handleHealth(s *Server, r *gin.Engine) {
	h := s.options.Health
	if !h.Enabled {
		return
	}
	r.GET(h.Path, func(c *gin.Context) {
		if h.Check != nil {
			if err := h.Check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
