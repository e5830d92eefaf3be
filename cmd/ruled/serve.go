package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/kochabx/ratelimit/app"
	httptransport "github.com/kochabx/ratelimit/transport/http"
	"github.com/kochabx/ratelimit/transport/http/handler"
	"github.com/kochabx/ratelimit/transport/http/middleware"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rate limit decision API",
		Long: `Load policies from the config file and serve the decision API over HTTP.

Routes:
  GET  /v1/policies              list loaded policies
  GET  /v1/check/:policy/:key    evaluate one key
  POST /v1/check/:policy         evaluate {"keys": [...]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), opts.configFile)
			if err != nil {
				return err
			}
			rt.startHealth()

			srv, err := rt.server()
			if err != nil {
				_ = rt.close(cmd.Context())
				return err
			}

			if watch {
				if err := rt.conf.Watch(rt.reload); err != nil {
					_ = rt.close(cmd.Context())
					return err
				}
			}

			return app.New(
				app.WithContext(cmd.Context()),
				app.WithLogger(rt.logger),
				app.WithServer(srv),
				app.WithClose("ruled", rt.close, 0),
			).Start()
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "reload policies when the config file changes")
	return cmd
}

// router 构建 gin 路由，/v1 下挂载决策接口和可选的 guard 限流
func (rt *runtime) router() (*gin.Engine, error) {
	cfg := rt.cfg.Server
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(middleware.LoggerConfig{
			SkipPaths: []string{cfg.Metrics.Path, cfg.Health.Path},
			Logger:    rt.logger,
		}),
		middleware.Recovery(middleware.RecoveryConfig{Logger: rt.logger}),
	)

	v1 := r.Group("/v1")
	guard, err := cfg.Guard.build(rt.engine, rt.logger)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		v1.Use(guard)
	}
	handler.New(rt.engine).Register(v1)

	return r, nil
}

func (rt *runtime) server() (*httptransport.Server, error) {
	r, err := rt.router()
	if err != nil {
		return nil, err
	}

	cfg := rt.cfg.Server
	health := cfg.Health
	health.Check = rt.healthCheck

	return httptransport.NewServer(cfg.Addr, r,
		httptransport.WithMeta(httptransport.Meta{Name: "ruled"}),
		httptransport.WithMetricsOptions(cfg.Metrics),
		httptransport.WithHealthOptions(health),
		httptransport.WithTimeoutOptions(cfg.Timeouts),
	), nil
}
