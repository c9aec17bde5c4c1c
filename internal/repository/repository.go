package repository

import (
	"context"

	"github.com/ecomgo/reviews/internal/domain"
)

// ReviewFilter narrows a review lookup. Nil fields do not filter.
type ReviewFilter struct {
	ProductID *int64
	ID        *int64
	Status    *bool
}

// IsEmpty reports whether no filter is set.
func (f ReviewFilter) IsEmpty() bool {
	return f.ProductID == nil && f.ID == nil && f.Status == nil
}

// ReviewRepository defines persistence for reviews.
type ReviewRepository interface {
	// Create inserts review and fills in its ID and timestamps. A second
	// review for the same product and user yields apperrors.ErrAlreadyExists.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by id.
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	// ExistsForProductUser reports whether the user already reviewed the product.
	ExistsForProductUser(ctx context.Context, productID, userID int64) (bool, error)

	// List returns reviews matching filter ordered by rating, then id.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, error)

	// Moderate sets status when non-nil and adds helpfulDelta to the helpful
	// counter in one statement.
	Moderate(ctx context.Context, id int64, status *bool, helpfulDelta int) (*domain.Review, error)

	// Delete removes the review. Its media rows go with it.
	Delete(ctx context.Context, id int64) error
}

// MediaRepository defines persistence for review media.
type MediaRepository interface {
	// Create appends media at the end of its review's sort order.
	Create(ctx context.Context, media *domain.ReviewMedia) error

	// GetByID retrieves a media item by id.
	GetByID(ctx context.Context, id int64) (*domain.ReviewMedia, error)

	// ListByReview returns the review's media ordered by sort order, then id.
	ListByReview(ctx context.Context, reviewID int64) ([]domain.ReviewMedia, error)

	// UpdateAlt changes the alt text.
	UpdateAlt(ctx context.Context, id int64, alt string) (*domain.ReviewMedia, error)

	// Delete removes the media item and closes the gap it leaves in the
	// sort order of its siblings.
	Delete(ctx context.Context, id int64) error
}

// CatalogRepository resolves the products and users reviews refer to.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}
