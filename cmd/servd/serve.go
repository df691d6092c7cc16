package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Suhaibinator/SServ/pkg/codec"
	"github.com/Suhaibinator/SServ/pkg/common"
	"github.com/Suhaibinator/SServ/pkg/metrics"
	"github.com/Suhaibinator/SServ/pkg/middleware"
	"github.com/Suhaibinator/SServ/pkg/router"
	"github.com/Suhaibinator/SServ/pkg/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the demo HTTP server. It answers GET / with {"data":"ok"},
echoes JSON posted to /items, and serves Prometheus metrics on /metrics
when --metrics is set. SIGINT and SIGTERM trigger a graceful shutdown.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger, nil)
}

// serve runs the server until ctx is done or the transport fails.
// ready, when not nil, receives the bound address.
func serve(ctx context.Context, cfg Config, logger *zap.Logger, ready func(server.Addr)) error {
	r, err := buildRouter(cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(r, server.Config{Logger: logger, Host: cfg.Host})

	eg, ctx := errgroup.WithContext(ctx)

	transportErr := make(chan error, 1)
	if err := srv.OnError(func(err error) {
		select {
		case transportErr <- err:
		default:
		}
	}); err != nil {
		return err
	}

	if err := srv.Listen(cfg.Port, ready); err != nil {
		return err
	}

	eg.Go(func() error {
		select {
		case err := <-transportErr:
			return err
		case <-ctx.Done():
			return nil
		}
	})

	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Close(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Server stopped")
	return nil
}

// item is the payload accepted by POST /items.
type item struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// buildRouter assembles the demo application.
func buildRouter(cfg Config, logger *zap.Logger) (*router.Router, error) {
	var collector *metrics.PrometheusCollector
	if cfg.Metrics {
		var err error
		collector, err = metrics.NewPrometheusCollector(metrics.PrometheusConfig{Namespace: "servd"})
		if err != nil {
			return nil, err
		}
	}

	mws := []common.Middleware{middleware.Logging(logger)}
	if cfg.RateLimit > 0 {
		mws = append(mws, middleware.Throttle(middleware.ThrottleConfig{
			Rate:    cfg.RateLimit,
			MaxWait: cfg.Timeout,
			Logger:  logger,
		}))
	}
	if len(cfg.Tokens) > 0 {
		valid := make(map[string]bool, len(cfg.Tokens))
		for _, token := range cfg.Tokens {
			valid[token] = true
		}
		mws = append(mws, middleware.NewBearerTokenMiddleware(valid, logger))
	}

	jsonCodec := codec.NewJSONCodec()

	rc := router.RouterConfig{
		Logger:            logger,
		GlobalTimeout:     cfg.Timeout,
		GlobalMaxBodySize: cfg.MaxBodySize,
		EnableTraceID:     cfg.TraceID,
		Codec:             jsonCodec,
		Middlewares:       mws,
		Routes: []router.RouteConfig{
			{
				Path:    "/",
				Methods: []string{http.MethodGet},
				Handler: func(r *http.Request, res *router.Response) error {
					return res.Send(http.StatusOK, map[string]string{"data": "ok"})
				},
			},
			{
				Path:    "/items",
				Methods: []string{http.MethodPost},
				Handler: func(r *http.Request, res *router.Response) error {
					var in item
					if err := jsonCodec.Decode(r, &in); err != nil {
						var maxErr *http.MaxBytesError
						if errors.As(err, &maxErr) {
							return router.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
						}
						return router.NewHTTPError(http.StatusBadRequest, "invalid item")
					}
					return res.Send(http.StatusCreated, in)
				},
			},
		},
	}
	if collector != nil {
		rc.Metrics = collector
		metricsHandler := collector.Handler()
		rc.Routes = append(rc.Routes, router.RouteConfig{
			Path:    "/metrics",
			Methods: []string{http.MethodGet},
			Handler: func(r *http.Request, res *router.Response) error {
				metricsHandler.ServeHTTP(res.Raw(), r)
				return nil
			},
		})
	}

	return router.NewRouter(rc)
}
