// Package pubsub publishes extracted articles to Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

// Message attribute keys set on every publish.
const (
	AttrArticleID = "article_id"
	AttrCategory  = "category"
)

type publishFunc func(ctx context.Context, msg *pubsub.Message) (string, error)

// Sink publishes each article as a JSON message.
type Sink struct {
	publish publishFunc
	close   func() error
}

// New wraps a topic publisher. The caller owns the publisher's lifecycle.
func New(publisher *pubsub.Publisher) *Sink {
	if publisher == nil {
		return &Sink{}
	}
	return &Sink{publish: publisherFunc(publisher)}
}

// Dial creates a client for project and a publisher for topic. Close stops
// both.
func Dial(ctx context.Context, project, topic string) (*Sink, error) {
	if project == "" || topic == "" {
		return nil, fmt.Errorf("sink.pubsub.project and sink.pubsub.topic are required")
	}
	client, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	publisher := client.Publisher(topic)
	return &Sink{
		publish: publisherFunc(publisher),
		close: func() error {
			publisher.Stop()
			if err := client.Close(); err != nil {
				return fmt.Errorf("close pubsub client: %w", err)
			}
			return nil
		},
	}, nil
}

func publisherFunc(publisher *pubsub.Publisher) publishFunc {
	return func(ctx context.Context, msg *pubsub.Message) (string, error) {
		id, err := publisher.Publish(ctx, msg).Get(ctx)
		if err != nil {
			return "", fmt.Errorf("publish message: %w", err)
		}
		return id, nil
	}
}

// Save marshals the article and blocks until the publish is acknowledged.
func (s *Sink) Save(ctx context.Context, article crawler.Article) error {
	if s == nil || s.publish == nil {
		return fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			AttrArticleID: article.ID,
			AttrCategory:  article.Category,
		},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Attributes))

	if _, err := s.publish(ctx, msg); err != nil {
		return err
	}
	return nil
}

// Close releases resources created by Dial.
func (s *Sink) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}
