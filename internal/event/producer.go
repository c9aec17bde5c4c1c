package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ecomgo/reviews/internal/domain"
	pkgkafka "github.com/ecomgo/reviews/pkg/kafka"
	"github.com/ecomgo/reviews/pkg/logger"
)

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed Notifier.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func (p *Producer) publishReview(ctx context.Context, topic string, r *domain.Review) error {
	return p.publish(ctx, topic, strconv.FormatInt(r.ID, 10), AggregateTypeReview, reviewData(r))
}

func (p *Producer) publishMedia(ctx context.Context, topic string, m *domain.ReviewMedia) error {
	return p.publish(ctx, topic, strconv.FormatInt(m.ID, 10), AggregateTypeReviewMedia, reviewMediaData(m))
}

// ReviewCreated publishes a review.created event.
func (p *Producer) ReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publishReview(ctx, TopicReviewCreated, r)
}

// ReviewUpdated publishes a review.updated event.
func (p *Producer) ReviewUpdated(ctx context.Context, r *domain.Review) error {
	return p.publishReview(ctx, TopicReviewUpdated, r)
}

// ReviewDeleted publishes a review.deleted event carrying the review as it
// was before deletion.
func (p *Producer) ReviewDeleted(ctx context.Context, r *domain.Review) error {
	return p.publishReview(ctx, TopicReviewDeleted, r)
}

// ReviewMediaCreated publishes a review_media.created event.
func (p *Producer) ReviewMediaCreated(ctx context.Context, m *domain.ReviewMedia) error {
	return p.publishMedia(ctx, TopicReviewMediaCreated, m)
}

// ReviewMediaUpdated publishes a review_media.updated event.
func (p *Producer) ReviewMediaUpdated(ctx context.Context, m *domain.ReviewMedia) error {
	return p.publishMedia(ctx, TopicReviewMediaUpdated, m)
}

// ReviewMediaDeleted publishes a review_media.deleted event.
func (p *Producer) ReviewMediaDeleted(ctx context.Context, m *domain.ReviewMedia) error {
	return p.publishMedia(ctx, TopicReviewMediaDeleted, m)
}

var (
	_ Notifier = (*Producer)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
