package domain

import (
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's review of a product. Status false means the review is
// pending moderation.
type Review struct {
	ID              int64          `json:"id"`
	ProductID       int64          `json:"product_id"`
	UserID          int64          `json:"user_id"`
	Rating          int            `json:"rating"`
	Title           string         `json:"title"`
	Body            string         `json:"review"`
	Status          bool           `json:"status"`
	Helpful         int            `json:"helpful"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	PrivateMetadata map[string]any `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ValidRating reports whether r lies within [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// HelpfulDelta converts a helpful vote into the amount added to the counter.
func HelpfulDelta(helpful bool) int {
	if helpful {
		return 1
	}
	return -1
}
