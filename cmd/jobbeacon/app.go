package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amishk599/jobbeacon/internal/adapter"
	"github.com/amishk599/jobbeacon/internal/beacon"
	"github.com/amishk599/jobbeacon/internal/cache"
	"github.com/amishk599/jobbeacon/internal/config"
	"github.com/amishk599/jobbeacon/internal/dispatch"
	"github.com/amishk599/jobbeacon/internal/filter"
	"github.com/amishk599/jobbeacon/internal/ingest"
	"github.com/amishk599/jobbeacon/internal/model"
	"github.com/amishk599/jobbeacon/internal/notifier"
	"github.com/amishk599/jobbeacon/internal/pipeline"
	"github.com/amishk599/jobbeacon/internal/ratelimit"
	"github.com/amishk599/jobbeacon/internal/store"
)

// app bundles everything a command needs. close releases it in reverse order.
type app struct {
	cfg     *config.Config
	state   *store.State
	service *beacon.Service
	runner  *pipeline.Runner
	email   model.EmailSender
	push    model.PushSender
	slack   *notifier.SlackReporter
	closers []func() error
	logger  *slog.Logger
}

// newApp wires the store, sources, senders and pipeline from cfg. In dry-run
// mode nothing is persisted and deliveries only go to the log.
func newApp(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	backend, err := openBackend(ctx, cfg.Store, dryRun)
	if err != nil {
		return nil, err
	}
	a.state = store.NewState(backend, cfg.Store.Capacity, logger)
	a.closers = append(a.closers, a.state.Close)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	rc, err := setupCache(ctx, cfg.Cache, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	if c, ok := rc.(*cache.RedisCache); ok {
		a.closers = append(a.closers, c.Close)
	}

	if dryRun {
		a.email = notifier.NewLogEmailSender(cfg.Notification.Email.From, logger)
		a.push = notifier.NewLogPushSender(logger)
	} else {
		if err := a.setupSenders(httpClient); err != nil {
			a.close()
			return nil, err
		}
	}

	var reporter pipeline.Reporter
	if cfg.Notification.Slack.WebhookURL != "" {
		a.slack = notifier.NewSlackReporter(cfg.Notification.Slack.WebhookURL, httpClient, logger)
		reporter = a.slack
		logger.Info("slack run reports enabled")
	}

	ingestor := ingest.New(
		buildSources(cfg, httpClient, rc, logger),
		filter.NewAudienceFilter(cfg.Filters.Regions),
		a.state.Jobs(),
		0,
		logger,
	)
	dispatcher := dispatch.New(a.state.Jobs(), a.state.Users(), a.email, a.push, cfg.Notification.Concurrency, logger)
	a.runner = pipeline.NewRunner(ingestor, dispatcher, reporter, logger)
	a.service = beacon.New(a.state, a.runner, logger)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func openBackend(ctx context.Context, cfg config.StoreConfig, dryRun bool) (store.Backend, error) {
	if dryRun {
		return store.NewMemoryBackend(), nil
	}
	switch cfg.Driver {
	case "memory":
		return store.NewMemoryBackend(), nil
	case "postgres":
		return store.NewPostgresBackend(ctx, cfg.DSN)
	case "sqlite":
		return store.NewSQLiteBackend(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func setupCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.ResponseCache, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache(cfg.TTL), nil
	}
	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.TTL)
	if err != nil {
		return nil, err
	}
	logger.Info("using redis response cache", "ttl", cfg.TTL.String())
	return rc, nil
}

func (a *app) setupSenders(httpClient *http.Client) error {
	n := a.cfg.Notification

	switch n.Email.Type {
	case "amqp":
		s, err := notifier.NewAMQPEmailSender(n.Email.AMQPURL, n.Email.Queue, n.Email.From, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.email = s
		a.logger.Info("using amqp email sender", "queue", n.Email.Queue)
	default:
		a.email = notifier.NewLogEmailSender(n.Email.From, a.logger)
	}

	switch n.Push.Type {
	case "http":
		a.push = notifier.NewHTTPPushSender(n.Push.GatewayURL, httpClient, a.logger)
		a.logger.Info("using push gateway", "url", n.Push.GatewayURL)
	default:
		a.push = notifier.NewLogPushSender(a.logger)
	}
	return nil
}

// buildSources creates one rate-limited adapter per enabled source. Sources on
// the same host share the limiter slot.
func buildSources(cfg *config.Config, httpClient *http.Client, rc cache.ResponseCache, logger *slog.Logger) []ingest.Source {
	limiter := ratelimit.NewSourceRateLimiter(cfg.RateLimit.MinDelay)

	var sources []ingest.Source
	for _, s := range cfg.EnabledSources() {
		fetcher := adapter.NewRemotiveAdapter(s.Name, s.URL, httpClient, rc, logger)
		sources = append(sources, ingest.Source{
			Name:    s.Name,
			Fetcher: ratelimit.NewRateLimitedFetcher(fetcher, limiter, s.URL),
		})
		logger.Debug("registered source", "name", s.Name, "url", s.URL)
	}
	return sources
}

// openApp loads the config named by --config and wires the app.
func openApp(ctx context.Context, dryRun bool, logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApp(ctx, cfg, dryRun, logger)
}
