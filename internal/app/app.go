package app

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/graphgate/graphgate/internal/config"
	"github.com/graphgate/graphgate/internal/graph"
	"github.com/graphgate/graphgate/internal/graph/auth"
	"github.com/graphgate/graphgate/internal/graph/concurrency"
	"github.com/graphgate/graphgate/internal/graph/metrics"
	"github.com/graphgate/graphgate/internal/graph/mock"
	"github.com/graphgate/graphgate/internal/graph/ratelimit"
)

// closeGrace bounds how long Close waits on each resource after the drain
// deadline has been decided.
const closeGrace = 5 * time.Second

// App owns every long-lived pipeline component. It is constructed once at
// bootstrap and passed explicitly; nothing in here is a package-level
// singleton.
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Auth    *auth.Manager
	Limits  *ratelimit.Registry
	Gate    *concurrency.Gate
	Metrics *metrics.Collector
	HTTP    *http.Client
	Graph   *graph.Client
}

// New wires the pipeline from configuration. The mock backend is selected
// here, by transport injection, so no other component knows about it.
func New(cfg *config.Config, logger *logging.Logger) *App {
	httpClient := newHTTPClient(cfg)

	authMgr := auth.NewManager(auth.Config{
		TenantID:     cfg.Azure.TenantID,
		ClientID:     cfg.Azure.ClientID,
		ClientSecret: cfg.Azure.ClientSecret,
	})
	authMgr.HTTPClient = httpClient

	limits := ratelimit.NewRegistry(cfg.RateLimit)
	gate := concurrency.NewGate(cfg.Graph.MaxConcurrent)
	collector := metrics.NewCollector()

	client := graph.NewClient(authMgr, limits, gate, collector, httpClient)
	client.Logger = logger
	client.MaxRetries = cfg.Graph.MaxRetries
	if cfg.Graph.RetryMaxWait > 0 {
		client.RetryMaxWait = cfg.Graph.RetryMaxWait
	}
	if cfg.Graph.BaseURL != "" {
		client.BaseURL = cfg.Graph.BaseURL
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Auth:    authMgr,
		Limits:  limits,
		Gate:    gate,
		Metrics: collector,
		HTTP:    httpClient,
		Graph:   client,
	}
}

// newHTTPClient builds the shared pooled client. In mock mode the canned
// transport replaces the network entirely, token endpoint included.
func newHTTPClient(cfg *config.Config) *http.Client {
	if cfg.Graph.Mock {
		return &http.Client{
			Transport: mock.NewTransport(),
			Timeout:   cfg.Graph.Timeout,
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = cfg.Graph.MaxConns
	transport.MaxIdleConns = cfg.Graph.MaxKeepAlive
	transport.MaxIdleConnsPerHost = cfg.Graph.MaxKeepAlive

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Graph.Timeout,
	}
}

// Close drains the pipeline: new top-level calls are refused immediately,
// in-flight ones get until the ctx deadline, then pooled connections are
// released. Every step logs rather than blocks forever.
func (a *App) Close(ctx context.Context) error {
	if a.Logger != nil {
		a.Logger.Info("Draining outbound request pipeline")
	}

	drainCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithTimeout(ctx, closeGrace)
		defer cancel()
	}

	err := a.Graph.Close(drainCtx)
	if err != nil && a.Logger != nil {
		a.Logger.Warn("Pipeline drain incomplete", zap.Error(err))
	}

	a.HTTP.CloseIdleConnections()

	if a.Logger != nil && a.Metrics != nil {
		a.Metrics.LogSummary(a.Logger)
	}

	return err
}
