package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/answer"
	"github.com/henrybloomingdale/biofan/internal/artifact"
	"github.com/henrybloomingdale/biofan/internal/config"
	"github.com/henrybloomingdale/biofan/internal/logging"
	"github.com/henrybloomingdale/biofan/internal/metrics"
	"github.com/henrybloomingdale/biofan/internal/normalize"
	"github.com/henrybloomingdale/biofan/internal/research"
	"github.com/henrybloomingdale/biofan/internal/runner"
	"github.com/henrybloomingdale/biofan/internal/sources"
	"github.com/henrybloomingdale/biofan/internal/store"
	"github.com/henrybloomingdale/biofan/internal/xref"
)

// app holds the components built from one configuration.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sources  *sources.Set
	registry *normalize.Registry
	redis    *redis.Client
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		sources:  sources.NewSet(cfg.Sources(), logger, m),
		registry: normalize.DefaultRegistry(),
	}
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.logger.Sync()
}

// cache returns the shared Redis cache when configured, or a
// process-local one.
func (a *app) cache(ctx context.Context) xref.Cache {
	if a.redis == nil {
		return xref.NewMemoryCache()
	}
	if err := a.redis.Ping(ctx).Err(); err != nil {
		a.logger.Warn("redis unavailable, using in-memory cross-reference cache", zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		return xref.NewMemoryCache()
	}
	return xref.NewRedisCache(a.redis, xref.WithPrefix(a.cfg.RedisPrefix), xref.WithTTL(a.cfg.RedisTTL))
}

func (a *app) pipeline(ctx context.Context) *research.Pipeline {
	aug := xref.New(a.sources.PubChem, a.sources.ChEMBL,
		xref.WithMaxLookups(a.cfg.MaxAugmentationLookups),
		xref.WithRetries(a.cfg.AugmentRetries, a.cfg.AugmentBackoff),
		xref.WithCache(a.cache(ctx)),
		xref.WithLogger(a.logger),
		xref.WithRecorder(a.metrics),
	)
	return research.New(a.sources,
		research.WithDelay(a.cfg.ResearchDelay),
		research.WithAugmenter(aug),
		research.WithRegistry(a.registry),
		research.WithLogger(a.logger),
	)
}

func (a *app) engine() *answer.Engine {
	r := runner.New(a.cfg.RunnerConcurrency, a.cfg.RunnerTimeout, a.logger)
	r.Observer = a.metrics
	return answer.NewEngine(a.sources.Invoke, r,
		answer.WithCaps(a.cfg.Caps()),
		answer.WithRegistry(a.registry),
		answer.WithLogger(a.logger),
	)
}

// store opens the run store, or returns nil when no DSN is configured.
func (a *app) store() (*store.Store, error) {
	if a.cfg.PostgresDSN == "" {
		return nil, nil
	}
	s, err := store.Open(a.cfg.PostgresDSN, a.logger)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	return s, nil
}

// uploader returns the artifact uploader, or nil when S3 is not configured.
func (a *app) uploader(ctx context.Context) (*artifact.Uploader, error) {
	if !a.cfg.S3Enabled() {
		return nil, nil
	}
	client, err := artifact.NewS3Client(ctx, artifact.Config{
		Endpoint: a.cfg.S3Endpoint,
		Region:   a.cfg.S3Region,
		Bucket:   a.cfg.S3Bucket,
		Key:      a.cfg.S3Key,
		Secret:   a.cfg.S3Secret,
	})
	if err != nil {
		return nil, err
	}
	return artifact.New(client, a.cfg.S3Bucket, a.cfg.S3Endpoint, a.logger), nil
}
