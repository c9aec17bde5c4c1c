// Package event publishes review lifecycle notifications.
package event

import (
	"context"
	"log/slog"

	"github.com/ecomgo/reviews/internal/domain"
)

// Kafka topics for review domain events.
const (
	TopicReviewCreated      = "ecommerce.review.created"
	TopicReviewUpdated      = "ecommerce.review.updated"
	TopicReviewDeleted      = "ecommerce.review.deleted"
	TopicReviewMediaCreated = "ecommerce.review_media.created"
	TopicReviewMediaUpdated = "ecommerce.review_media.updated"
	TopicReviewMediaDeleted = "ecommerce.review_media.deleted"
)

const (
	AggregateTypeReview      = "review"
	AggregateTypeReviewMedia = "review_media"

	SourceReviewService = "review-service"
)

// Notifier receives review lifecycle notifications.
type Notifier interface {
	ReviewCreated(ctx context.Context, review *domain.Review) error
	ReviewUpdated(ctx context.Context, review *domain.Review) error
	ReviewDeleted(ctx context.Context, review *domain.Review) error
	ReviewMediaCreated(ctx context.Context, media *domain.ReviewMedia) error
	ReviewMediaUpdated(ctx context.Context, media *domain.ReviewMedia) error
	ReviewMediaDeleted(ctx context.Context, media *domain.ReviewMedia) error
}

// ReviewData is the payload of every review.* event.
type ReviewData struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	UserID    int64  `json:"user_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Status    bool   `json:"status"`
	Helpful   int    `json:"helpful"`
}

// ReviewMediaData is the payload of every review_media.* event.
type ReviewMediaData struct {
	ID          int64  `json:"id"`
	ReviewID    *int64 `json:"review_id"`
	Type        string `json:"type"`
	Image       string `json:"image,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	Alt         string `json:"alt"`
	SortOrder   *int   `json:"sort_order"`
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Title:     r.Title,
		Status:    r.Status,
		Helpful:   r.Helpful,
	}
}

func reviewMediaData(m *domain.ReviewMedia) ReviewMediaData {
	d := ReviewMediaData{
		ID:        m.ID,
		ReviewID:  m.ReviewID,
		Type:      string(m.Type),
		Image:     m.Image,
		Alt:       m.Alt,
		SortOrder: m.SortOrder,
	}
	if m.ExternalURL != nil {
		d.ExternalURL = *m.ExternalURL
	}
	return d
}

// LogNotifier writes notifications to the log. It is used when event
// publishing is disabled.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) review(ctx context.Context, kind string, r *domain.Review) error {
	n.logger.DebugContext(ctx, "review notification",
		slog.String("event", kind),
		slog.Int64("review_id", r.ID),
	)
	return nil
}

func (n *LogNotifier) media(ctx context.Context, kind string, m *domain.ReviewMedia) error {
	n.logger.DebugContext(ctx, "review media notification",
		slog.String("event", kind),
		slog.Int64("media_id", m.ID),
	)
	return nil
}

func (n *LogNotifier) ReviewCreated(ctx context.Context, r *domain.Review) error {
	return n.review(ctx, "review_created", r)
}

func (n *LogNotifier) ReviewUpdated(ctx context.Context, r *domain.Review) error {
	return n.review(ctx, "review_updated", r)
}

func (n *LogNotifier) ReviewDeleted(ctx context.Context, r *domain.Review) error {
	return n.review(ctx, "review_deleted", r)
}

func (n *LogNotifier) ReviewMediaCreated(ctx context.Context, m *domain.ReviewMedia) error {
	return n.media(ctx, "review_media_created", m)
}

func (n *LogNotifier) ReviewMediaUpdated(ctx context.Context, m *domain.ReviewMedia) error {
	return n.media(ctx, "review_media_updated", m)
}

func (n *LogNotifier) ReviewMediaDeleted(ctx context.Context, m *domain.ReviewMedia) error {
	return n.media(ctx, "review_media_deleted", m)
}
