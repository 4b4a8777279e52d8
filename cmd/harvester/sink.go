package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/config"
	"github.com/JakeFAU/particle-harvester/internal/crawler"
	memorysink "github.com/JakeFAU/particle-harvester/internal/sink/memory"
	postgressink "github.com/JakeFAU/particle-harvester/internal/sink/postgres"
	pubsubsink "github.com/JakeFAU/particle-harvester/internal/sink/pubsub"
)

// openSink builds the configured article sink and its cleanup func.
func openSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawler.ArticleSink, func(), error) {
	switch cfg.Sink.Provider {
	case config.SinkPostgres:
		pg := cfg.Sink.Postgres
		store, err := postgressink.NewArticleStore(ctx, postgressink.Config{
			DSN:             pg.DSN,
			Table:           pg.Table,
			MaxConns:        pg.MaxConns,
			MinConns:        pg.MinConns,
			MaxConnLifetime: cfg.PostgresMaxConnLifetime(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres sink: %w", err)
		}
		if pg.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				store.Close()
				return nil, nil, err
			}
		}
		logger.Info("article sink ready", zap.String("provider", cfg.Sink.Provider), zap.String("table", pg.Table))
		return store, store.Close, nil
	case config.SinkPubSub:
		ps := cfg.Sink.PubSub
		sink, err := pubsubsink.Dial(ctx, ps.ProjectID, ps.TopicName)
		if err != nil {
			return nil, nil, fmt.Errorf("open pubsub sink: %w", err)
		}
		logger.Info("article sink ready", zap.String("provider", cfg.Sink.Provider), zap.String("topic", ps.TopicName))
		return sink, func() {
			if err := sink.Close(); err != nil {
				logger.Warn("pubsub sink close failed", zap.Error(err))
			}
		}, nil
	default:
		logger.Info("article sink ready", zap.String("provider", config.SinkMemory))
		mem := memorysink.New()
		return mem, func() {
			logger.Info("in-memory articles discarded", zap.Int("count", mem.Len()))
		}, nil
	}
}
