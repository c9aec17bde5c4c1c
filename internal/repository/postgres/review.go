package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/internal/repository"
	"github.com/ecomgo/reviews/pkg/database"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

const reviewUniqueConstraint = "reviews_product_user_key"

const reviewColumns = `id, product_id, user_id, rating, title, review, status, helpful, metadata, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (product_id, user_id, rating, title, review, status, helpful, metadata, private_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "ReviewRepository.Create", query)
	defer func() { end(err) }()

	metadataJSON, err := marshalJSONB(review.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	privateJSON, err := marshalJSONB(review.PrivateMetadata)
	if err != nil {
		return fmt.Errorf("marshal private metadata: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Title,
		review.Body,
		review.Status,
		review.Helpful,
		metadataJSON,
		privateJSON,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, reviewUniqueConstraint) {
			return apperrors.AlreadyExists("review", "product_id,user_id",
				fmt.Sprintf("%d,%d", review.ProductID, review.UserID))
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by id.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (_ *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "ReviewRepository.GetByID", query)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// ExistsForProductUser reports whether a review exists for the pair.
func (r *ReviewRepository) ExistsForProductUser(ctx context.Context, productID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, productID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check existing review: %w", err)
	}
	return exists, nil
}

// List returns reviews matching filter ordered by rating, then id.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, err error) {
	var (
		conditions []string
		args       []any
	)
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.ID != nil {
		args = append(args, *filter.ID)
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY rating, id`

	ctx, end := database.TraceQuery(ctx, "ReviewRepository.List", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// Moderate applies a status change and a helpful delta atomically.
func (r *ReviewRepository) Moderate(ctx context.Context, id int64, status *bool, helpfulDelta int) (_ *domain.Review, err error) {
	query := `
		UPDATE reviews
		SET status = COALESCE($2, status),
		    helpful = helpful + $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reviewColumns

	ctx, end := database.TraceQuery(ctx, "ReviewRepository.Moderate", query)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, query, id, status, helpfulDelta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

// Delete removes a review by id.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "ReviewRepository.Delete", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", strconv.FormatInt(id, 10))
	}
	return nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv           domain.Review
		metadataJSON []byte
	)
	if err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.Rating,
		&rv.Title,
		&rv.Body,
		&rv.Status,
		&rv.Helpful,
		&metadataJSON,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(metadataJSON, &rv.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &rv, nil
}

// marshalJSONB encodes m for a JSONB column; nil becomes an empty object.
func marshalJSONB(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(m)
}

func unmarshalJSONB(data []byte, dst *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
