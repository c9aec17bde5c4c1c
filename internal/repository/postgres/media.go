package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/pkg/database"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

const mediaColumns = `id, review_id, image, external_url, oembed_data, alt, type, sort_order, metadata`

// MediaRepository implements repository.MediaRepository using PostgreSQL.
type MediaRepository struct {
	pool database.DBTX
}

// NewMediaRepository creates a new PostgreSQL-backed media repository.
func NewMediaRepository(pool database.DBTX) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// Create locks the parent review, appends the media after its last sibling
// and fills in ID and SortOrder.
func (r *MediaRepository) Create(ctx context.Context, m *domain.ReviewMedia) (err error) {
	if m.ReviewID == nil {
		return apperrors.InvalidInput("media must belong to a review")
	}
	reviewID := *m.ReviewID

	oembedJSON, err := marshalJSONB(m.OEmbedData)
	if err != nil {
		return fmt.Errorf("marshal oembed data: %w", err)
	}
	metadataJSON, err := marshalJSONB(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	insert := `
		INSERT INTO review_media (review_id, image, external_url, oembed_data, alt, type, sort_order, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "MediaRepository.Create", insert)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked int64
	err = tx.QueryRow(ctx, `SELECT id FROM reviews WHERE id = $1 FOR UPDATE`, reviewID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review", strconv.FormatInt(reviewID, 10))
		}
		return fmt.Errorf("lock review: %w", err)
	}

	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM review_media WHERE review_id = $1`,
		reviewID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next sort order: %w", err)
	}

	if m.Type == "" {
		m.Type = domain.MediaTypeImage
	}
	err = tx.QueryRow(ctx, insert,
		reviewID,
		m.Image,
		m.ExternalURL,
		oembedJSON,
		m.Alt,
		string(m.Type),
		next,
		metadataJSON,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert review media: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	m.SortOrder = &next
	return nil
}

// GetByID retrieves a media item by id.
func (r *MediaRepository) GetByID(ctx context.Context, id int64) (*domain.ReviewMedia, error) {
	query := `SELECT ` + mediaColumns + ` FROM review_media WHERE id = $1`

	m, err := scanMedia(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review media", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get review media by id: %w", err)
	}
	return m, nil
}

// ListByReview returns a review's media in display order.
func (r *MediaRepository) ListByReview(ctx context.Context, reviewID int64) (_ []domain.ReviewMedia, err error) {
	query := `SELECT ` + mediaColumns + ` FROM review_media WHERE review_id = $1 ORDER BY sort_order NULLS LAST, id`

	ctx, end := database.TraceQuery(ctx, "MediaRepository.ListByReview", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list review media: %w", err)
	}
	defer rows.Close()

	media := []domain.ReviewMedia{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review media row: %w", err)
		}
		media = append(media, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review media rows: %w", err)
	}
	return media, nil
}

// UpdateAlt changes the alt text of a media item.
func (r *MediaRepository) UpdateAlt(ctx context.Context, id int64, alt string) (*domain.ReviewMedia, error) {
	query := `UPDATE review_media SET alt = $2 WHERE id = $1 RETURNING ` + mediaColumns

	m, err := scanMedia(r.pool.QueryRow(ctx, query, id, alt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review media", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("update review media: %w", err)
	}
	return m, nil
}

// Delete removes a media item and shifts the following siblings up by one.
func (r *MediaRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM review_media WHERE id = $1 RETURNING review_id, sort_order`

	ctx, end := database.TraceQuery(ctx, "MediaRepository.Delete", query)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the parent review first, in the same order as Create, so a
	// concurrent append cannot read MAX(sort_order) mid-shift.
	var reviewID *int64
	if err := tx.QueryRow(ctx, `SELECT review_id FROM review_media WHERE id = $1`, id).Scan(&reviewID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review media", strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("lookup review media: %w", err)
	}
	if reviewID != nil {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM reviews WHERE id = $1 FOR UPDATE`, *reviewID).Scan(&locked)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock review: %w", err)
		}
	}

	var sortOrder *int
	if err := tx.QueryRow(ctx, query, id).Scan(&reviewID, &sortOrder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review media", strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("delete review media: %w", err)
	}

	if reviewID != nil && sortOrder != nil {
		_, err := tx.Exec(ctx, `
			UPDATE review_media
			SET sort_order = sort_order - 1
			WHERE review_id = $1 AND sort_order > $2`,
			*reviewID, *sortOrder,
		)
		if err != nil {
			return fmt.Errorf("resequence review media: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanMedia(row pgx.Row) (*domain.ReviewMedia, error) {
	var (
		m            domain.ReviewMedia
		mediaType    string
		oembedJSON   []byte
		metadataJSON []byte
	)
	if err := row.Scan(
		&m.ID,
		&m.ReviewID,
		&m.Image,
		&m.ExternalURL,
		&oembedJSON,
		&m.Alt,
		&mediaType,
		&m.SortOrder,
		&metadataJSON,
	); err != nil {
		return nil, err
	}
	m.Type = domain.MediaType(mediaType)
	if err := unmarshalJSONB(oembedJSON, &m.OEmbedData); err != nil {
		return nil, fmt.Errorf("unmarshal oembed data: %w", err)
	}
	if err := unmarshalJSONB(metadataJSON, &m.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &m, nil
}
