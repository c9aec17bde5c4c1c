// Package service implements review and review media use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/internal/event"
	"github.com/ecomgo/reviews/internal/globalid"
	"github.com/ecomgo/reviews/internal/repository"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

const (
	msgRequired = "This field is required."
	msgNotFound = "Couldn't resolve to a node: %s"
)

// ReviewService implements the business logic for reviews.
type ReviewService struct {
	reviews  repository.ReviewRepository
	media    repository.MediaRepository
	catalog  repository.CatalogRepository
	notifier event.Notifier
	files    fileRemover
	logger   *slog.Logger
}

type fileRemover interface {
	Delete(ctx context.Context, key string) error
}

// NewReviewService creates a ReviewService. files removes stored images of
// media that go away with a deleted review.
func NewReviewService(
	reviews repository.ReviewRepository,
	media repository.MediaRepository,
	catalog repository.CatalogRepository,
	files fileRemover,
	notifier event.Notifier,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		media:    media,
		catalog:  catalog,
		notifier: notifier,
		files:    files,
		logger:   logger,
	}
}

// SubmitReviewInput holds a new review. Product and User are global ids.
type SubmitReviewInput struct {
	Product string
	User    string
	Rating  *int
	Title   string
	Review  string
}

// UpdateReviewInput holds moderation changes for a review.
type UpdateReviewInput struct {
	ID        string
	Status    *bool
	IsHelpful *bool
}

// ReviewQuery filters getProductReview. Fields are global ids.
type ReviewQuery struct {
	Product *string
	ID      *string
	Status  *bool
}

// Submit validates and stores a new review. It is left pending moderation.
func (s *ReviewService) Submit(ctx context.Context, in *SubmitReviewInput) (review *domain.Review, err error) {
	defer func() { observe("submit_review", err) }()

	ve := domain.NewValidationError()
	if strings.TrimSpace(in.Product) == "" {
		ve.Add("product", domain.CodeRequired, msgRequired)
	}
	if strings.TrimSpace(in.User) == "" {
		ve.Add("user", domain.CodeRequired, msgRequired)
	}
	if in.Rating == nil {
		ve.Add("rating", domain.CodeRequired, msgRequired)
	}
	if strings.TrimSpace(in.Title) == "" {
		ve.Add("title", domain.CodeRequired, msgRequired)
	}
	if strings.TrimSpace(in.Review) == "" {
		ve.Add("review", domain.CodeRequired, msgRequired)
	}
	if ve.HasErrors() {
		return nil, ve
	}
	if !domain.ValidRating(*in.Rating) {
		return nil, domain.FieldErr("rating", domain.CodeInvalid,
			fmt.Sprintf("Rating must be between %d and %d.", domain.MinRating, domain.MaxRating))
	}
	if err := validateText(in.Title, in.Review); err != nil {
		return nil, err
	}

	productID, err := s.resolveProduct(ctx, in.Product)
	if err != nil {
		return nil, err
	}
	userID, err := s.resolveUser(ctx, in.User)
	if err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsForProductUser(ctx, productID, userID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, alreadyReviewed()
	}

	review = &domain.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    *in.Rating,
		Title:     in.Title,
		Body:      in.Review,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, alreadyReviewed()
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.notify(ctx, "review_created", func(ctx context.Context) error {
		return s.notifier.ReviewCreated(ctx, review)
	})

	s.logger.InfoContext(ctx, "review submitted",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int64("user_id", review.UserID),
		slog.Int("rating", review.Rating),
	)
	return review, nil
}

func alreadyReviewed() error {
	return domain.FieldErr("input", domain.CodeAlreadyExists, "You have already reviewed this product.")
}

// Update applies moderation to a review: status is set verbatim and a
// helpful vote moves the counter by one.
func (s *ReviewService) Update(ctx context.Context, in *UpdateReviewInput) (review *domain.Review, err error) {
	defer func() { observe("update_review", err) }()

	current, err := s.lookupReview(ctx, "id", in.ID)
	if err != nil {
		return nil, err
	}

	delta := 0
	if in.IsHelpful != nil {
		delta = domain.HelpfulDelta(*in.IsHelpful)
	}
	review, err = s.reviews.Moderate(ctx, current.ID, in.Status, delta)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, reviewNotFound("id", in.ID)
		}
		return nil, fmt.Errorf("moderate review: %w", err)
	}

	s.notify(ctx, "review_updated", func(ctx context.Context) error {
		return s.notifier.ReviewUpdated(ctx, review)
	})

	s.logger.InfoContext(ctx, "review updated",
		slog.Int64("review_id", review.ID),
		slog.Bool("status", review.Status),
		slog.Int("helpful", review.Helpful),
	)
	return review, nil
}

// Delete removes a review and its media and returns the review as it was.
func (s *ReviewService) Delete(ctx context.Context, id string) (review *domain.Review, err error) {
	defer func() { observe("delete_review", err) }()

	review, err = s.lookupReview(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	media, err := s.media.ListByReview(ctx, review.ID)
	if err != nil {
		return nil, fmt.Errorf("list media for delete: %w", err)
	}

	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, reviewNotFound("id", id)
		}
		return nil, fmt.Errorf("delete review: %w", err)
	}

	for i := range media {
		removeFile(ctx, s.files, s.logger, &media[i])
	}

	s.notify(ctx, "review_deleted", func(ctx context.Context) error {
		return s.notifier.ReviewDeleted(ctx, review)
	})

	s.logger.InfoContext(ctx, "review deleted",
		slog.Int64("review_id", review.ID),
		slog.Int("media_removed", len(media)),
	)
	return review, nil
}

// Find answers getProductReview. With no filter set it returns nil.
func (s *ReviewService) Find(ctx context.Context, q ReviewQuery) ([]domain.Review, error) {
	var filter repository.ReviewFilter
	if q.Product != nil {
		pk, err := globalid.DecodeAs(*q.Product, globalid.TypeProduct)
		if err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		filter.ProductID = &pk
	}
	if q.ID != nil {
		pk, err := globalid.DecodeAs(*q.ID, globalid.TypeReview)
		if err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		filter.ID = &pk
	}
	filter.Status = q.Status
	if filter.IsEmpty() {
		return nil, nil
	}

	reviews, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	return reviews, nil
}

// List returns every review.
func (s *ReviewService) List(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.reviews.List(ctx, repository.ReviewFilter{})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Media returns the review's media in display order.
func (s *ReviewService) Media(ctx context.Context, reviewID int64) ([]domain.ReviewMedia, error) {
	media, err := s.media.ListByReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list review media: %w", err)
	}
	return media, nil
}

// MediaByID returns the media item with the given global id when it belongs
// to the review, and nil otherwise.
func (s *ReviewService) MediaByID(ctx context.Context, reviewID int64, id string) (*domain.ReviewMedia, error) {
	pk, err := globalid.DecodeAs(id, globalid.TypeReviewMedia)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	m, err := s.media.GetByID(ctx, pk)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review media: %w", err)
	}
	if m.ReviewID == nil || *m.ReviewID != reviewID {
		return nil, nil
	}
	return m, nil
}

// Product returns the reviewed product.
func (s *ReviewService) Product(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// User returns the review author.
func (s *ReviewService) User(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.catalog.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *ReviewService) resolveProduct(ctx context.Context, id string) (int64, error) {
	pk, err := globalid.DecodeAs(id, globalid.TypeProduct)
	if err != nil {
		return 0, domain.FieldErr("product", domain.CodeInvalid, err.Error())
	}
	if _, err := s.catalog.GetProduct(ctx, pk); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, domain.FieldErr("product", domain.CodeNotFound, fmt.Sprintf(msgNotFound, id))
		}
		return 0, fmt.Errorf("get product: %w", err)
	}
	return pk, nil
}

func (s *ReviewService) resolveUser(ctx context.Context, id string) (int64, error) {
	pk, err := globalid.DecodeAs(id, globalid.TypeUser)
	if err != nil {
		return 0, domain.FieldErr("user", domain.CodeInvalid, err.Error())
	}
	if _, err := s.catalog.GetUser(ctx, pk); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, domain.FieldErr("user", domain.CodeNotFound, fmt.Sprintf(msgNotFound, id))
		}
		return 0, fmt.Errorf("get user: %w", err)
	}
	return pk, nil
}

// lookupReview decodes a review global id and loads the review. Problems are
// reported against field.
func (s *ReviewService) lookupReview(ctx context.Context, field, id string) (*domain.Review, error) {
	return lookupReview(ctx, s.reviews, field, id)
}

func lookupReview(ctx context.Context, reviews repository.ReviewRepository, field, id string) (*domain.Review, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.FieldErr(field, domain.CodeRequired, msgRequired)
	}
	pk, err := globalid.DecodeAs(id, globalid.TypeReview)
	if err != nil {
		return nil, domain.FieldErr(field, domain.CodeInvalid, err.Error())
	}
	review, err := reviews.GetByID(ctx, pk)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, reviewNotFound(field, id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

func reviewNotFound(field, id string) error {
	return domain.FieldErr(field, domain.CodeNotFound, fmt.Sprintf(msgNotFound, id))
}

// notify delivers a notification. Failures are logged and counted but never
// fail the mutation that triggered them.
func (s *ReviewService) notify(ctx context.Context, kind string, send func(context.Context) error) {
	notify(ctx, s.logger, kind, send)
}

func notify(ctx context.Context, logger *slog.Logger, kind string, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		notifyErrorsTotal.Inc()
		logger.ErrorContext(ctx, "failed to send notification",
			slog.String("event", kind),
			slog.String("error", err.Error()),
		)
	}
}

// removeFile deletes the stored image of m, if it has one. Errors are logged.
func removeFile(ctx context.Context, files fileRemover, logger *slog.Logger, m *domain.ReviewMedia) {
	if m.Image == "" || files == nil {
		return
	}
	if err := files.Delete(ctx, m.Image); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.WarnContext(ctx, "failed to remove stored media file",
			slog.Int64("media_id", m.ID),
			slog.String("key", m.Image),
			slog.String("error", err.Error()),
		)
	}
}

func isValidation(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}
