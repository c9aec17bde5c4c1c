package domain

import (
	"unicode/utf8"
)

// AltCharLimit is the maximum length of a media alt text in characters.
const AltCharLimit = 250

// ExternalURLMaxLength bounds the stored external media URL in bytes.
const ExternalURLMaxLength = 1024

// MediaType classifies review media.
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// ReviewMedia is an image or external video attached to a review. Exactly
// one of Image and ExternalURL is set.
type ReviewMedia struct {
	ID          int64          `json:"id"`
	ReviewID    *int64         `json:"review_id"`
	Image       string         `json:"image,omitempty"`
	ExternalURL *string        `json:"external_url,omitempty"`
	OEmbedData  map[string]any `json:"oembed_data,omitempty"`
	Alt         string         `json:"alt"`
	Type        MediaType      `json:"type"`
	SortOrder   *int           `json:"sort_order"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// IsExternal reports whether the media points at a third-party resource
// rather than a stored file.
func (m *ReviewMedia) IsExternal() bool {
	return m.ExternalURL != nil && *m.ExternalURL != ""
}

// ValidAlt reports whether alt fits AltCharLimit.
func ValidAlt(alt string) bool {
	return utf8.RuneCountInString(alt) <= AltCharLimit
}

// MediaTypeFromOEmbed maps an oEmbed resource type onto a MediaType.
// Only photo and video resources are accepted.
func MediaTypeFromOEmbed(oembedType string) (MediaType, bool) {
	switch oembedType {
	case "photo":
		return MediaTypeImage, true
	case "video":
		return MediaTypeVideo, true
	default:
		return "", false
	}
}
