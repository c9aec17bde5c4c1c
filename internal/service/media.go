package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/internal/event"
	"github.com/ecomgo/reviews/internal/globalid"
	"github.com/ecomgo/reviews/internal/media"
	"github.com/ecomgo/reviews/internal/oembed"
	"github.com/ecomgo/reviews/internal/repository"
	"github.com/ecomgo/reviews/internal/storage"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

// ImageFetcher checks and downloads images linked by URL.
type ImageFetcher interface {
	Check(ctx context.Context, rawURL string) error
	Download(ctx context.Context, rawURL string) (*media.Image, string, error)
}

// OEmbedResolver describes third-party media pages.
type OEmbedResolver interface {
	Resolve(ctx context.Context, pageURL string) (oembed.Data, error)
}

// Upload is a file received with a mutation. A nil Data means the request
// referenced a file part it did not include.
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// CreateMediaInput holds a new review media item. Exactly one of Image and
// MediaURL must be set.
type CreateMediaInput struct {
	Review   string
	Alt      *string
	Image    *Upload
	MediaURL *string
}

// MediaService implements the business logic for review media.
type MediaService struct {
	reviews  repository.ReviewRepository
	media    repository.MediaRepository
	storage  storage.Storage
	fetcher  ImageFetcher
	oembed   OEmbedResolver
	notifier event.Notifier
	maxSize  int64
	logger   *slog.Logger
}

// NewMediaService creates a MediaService. maxSize caps uploaded and
// downloaded images.
func NewMediaService(
	reviews repository.ReviewRepository,
	mediaRepo repository.MediaRepository,
	store storage.Storage,
	fetcher ImageFetcher,
	resolver OEmbedResolver,
	notifier event.Notifier,
	maxSize int64,
	logger *slog.Logger,
) *MediaService {
	return &MediaService{
		reviews:  reviews,
		media:    mediaRepo,
		storage:  store,
		fetcher:  fetcher,
		oembed:   resolver,
		notifier: notifier,
		maxSize:  maxSize,
		logger:   logger,
	}
}

// Create attaches an uploaded image, a downloaded remote image or an oEmbed
// resource to a review. It returns the parent review and the new media.
func (s *MediaService) Create(ctx context.Context, in *CreateMediaInput) (review *domain.Review, m *domain.ReviewMedia, err error) {
	defer func() { observe("create_review_media", err) }()

	hasURL := in.MediaURL != nil && strings.TrimSpace(*in.MediaURL) != ""
	switch {
	case in.Image == nil && !hasURL:
		return nil, nil, domain.FieldErr("input", domain.CodeRequired,
			"Image or external URL is required.")
	case in.Image != nil && hasURL:
		return nil, nil, domain.FieldErr("input", domain.CodeDuplicatedInputItem,
			"Either image or external URL is required.")
	}
	alt := ""
	if in.Alt != nil {
		alt = *in.Alt
	}
	if !domain.ValidAlt(alt) {
		return nil, nil, altTooLong()
	}

	review, err = lookupReview(ctx, s.reviews, "review", in.Review)
	if err != nil {
		return nil, nil, err
	}

	m = &domain.ReviewMedia{ReviewID: &review.ID, Alt: alt}
	var source string
	switch {
	case in.Image != nil:
		source = "upload"
		err = s.fromUpload(ctx, in.Image, m)
	case media.IsImageURL(*in.MediaURL):
		source = "remote_image"
		err = s.fromRemoteImage(ctx, strings.TrimSpace(*in.MediaURL), m)
	default:
		source = "oembed"
		err = s.fromOEmbed(ctx, strings.TrimSpace(*in.MediaURL), in.Alt == nil || *in.Alt == "", m)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := s.media.Create(ctx, m); err != nil {
		removeFile(ctx, s.storage, s.logger, m)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, reviewNotFound("review", in.Review)
		}
		return nil, nil, fmt.Errorf("create review media: %w", err)
	}
	mediaCreatedTotal.WithLabelValues(source).Inc()

	notify(ctx, s.logger, "review_updated", func(ctx context.Context) error {
		return s.notifier.ReviewUpdated(ctx, review)
	})
	notify(ctx, s.logger, "review_media_created", func(ctx context.Context) error {
		return s.notifier.ReviewMediaCreated(ctx, m)
	})

	s.logger.InfoContext(ctx, "review media created",
		slog.Int64("media_id", m.ID),
		slog.Int64("review_id", review.ID),
		slog.String("type", string(m.Type)),
		slog.String("source", source),
	)
	return review, m, nil
}

func (s *MediaService) fromUpload(ctx context.Context, up *Upload, m *domain.ReviewMedia) error {
	if up.Data == nil {
		return domain.FieldErr("image", domain.CodeRequired, "File for image is missing from the request.")
	}
	img, err := media.ReadImage(up.Data, s.maxSize)
	if err != nil {
		return imageError("image", err)
	}
	return s.store(ctx, up.Filename, img, m)
}

func (s *MediaService) fromRemoteImage(ctx context.Context, rawURL string, m *domain.ReviewMedia) error {
	if err := validateMediaURL(rawURL); err != nil {
		return err
	}
	if err := s.fetcher.Check(ctx, rawURL); err != nil {
		return domain.FieldErr("media_url", domain.CodeInvalid, "Invalid file. The URL does not point to an image.")
	}
	img, name, err := s.fetcher.Download(ctx, rawURL)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) || errors.Is(err, media.ErrUnsupportedImage) || errors.Is(err, media.ErrTooLarge) {
			return imageError("media_url", err)
		}
		return apperrors.Unavailable("remote image", err)
	}
	return s.store(ctx, name, img, m)
}

func (s *MediaService) fromOEmbed(ctx context.Context, pageURL string, useTitle bool, m *domain.ReviewMedia) error {
	if err := validateMediaURL(pageURL); err != nil {
		return err
	}
	data, err := s.oembed.Resolve(ctx, pageURL)
	if err != nil {
		s.logger.DebugContext(ctx, "oembed lookup failed",
			slog.String("url", pageURL),
			slog.String("error", err.Error()),
		)
		return unsupportedProvider()
	}
	typ, ok := domain.MediaTypeFromOEmbed(data.Type())
	if !ok {
		return unsupportedProvider()
	}

	external := data.URL()
	if external == "" {
		external = pageURL
	}
	if len(external) > domain.ExternalURLMaxLength {
		return domain.FieldErr("media_url", domain.CodeInvalid, "The media URL is too long.")
	}
	m.ExternalURL = &external
	m.OEmbedData = data
	m.Type = typ
	if useTitle {
		m.Alt = truncateRunes(data.Title(), domain.AltCharLimit)
	}
	return nil
}

func (s *MediaService) store(ctx context.Context, name string, img *media.Image, m *domain.ReviewMedia) error {
	res, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         storage.NewKey(name, img.Ext),
		ContentType: img.ContentType,
		Size:        img.Size(),
		Data:        img.Reader(),
	})
	if err != nil {
		return fmt.Errorf("upload to storage: %w", err)
	}
	m.Image = res.Key
	m.Type = domain.MediaTypeImage
	return nil
}

// Update changes the alt text of a media item.
func (s *MediaService) Update(ctx context.Context, id string, alt *string) (review *domain.Review, m *domain.ReviewMedia, err error) {
	defer func() { observe("update_review_media", err) }()

	current, err := s.lookupMedia(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if alt != nil && !domain.ValidAlt(*alt) {
		return nil, nil, altTooLong()
	}

	m = current
	if alt != nil {
		m, err = s.media.UpdateAlt(ctx, current.ID, *alt)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, nil, mediaNotFound(id)
			}
			return nil, nil, fmt.Errorf("update review media: %w", err)
		}
	}

	review, err = s.parent(ctx, m)
	if err != nil {
		return nil, nil, err
	}

	if review != nil {
		notify(ctx, s.logger, "review_updated", func(ctx context.Context) error {
			return s.notifier.ReviewUpdated(ctx, review)
		})
	}
	notify(ctx, s.logger, "review_media_updated", func(ctx context.Context) error {
		return s.notifier.ReviewMediaUpdated(ctx, m)
	})

	s.logger.InfoContext(ctx, "review media updated", slog.Int64("media_id", m.ID))
	return review, m, nil
}

// Delete removes a media item and returns its parent review and the item as
// it was before deletion.
func (s *MediaService) Delete(ctx context.Context, id string) (review *domain.Review, m *domain.ReviewMedia, err error) {
	defer func() { observe("delete_review_media", err) }()

	m, err = s.lookupMedia(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	review, err = s.parent(ctx, m)
	if err != nil {
		return nil, nil, err
	}

	if err := s.media.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, mediaNotFound(id)
		}
		return nil, nil, fmt.Errorf("delete review media: %w", err)
	}
	removeFile(ctx, s.storage, s.logger, m)

	if review != nil {
		notify(ctx, s.logger, "review_updated", func(ctx context.Context) error {
			return s.notifier.ReviewUpdated(ctx, review)
		})
	}
	notify(ctx, s.logger, "review_media_deleted", func(ctx context.Context) error {
		return s.notifier.ReviewMediaDeleted(ctx, m)
	})

	s.logger.InfoContext(ctx, "review media deleted", slog.Int64("media_id", m.ID))
	return review, m, nil
}

// URL returns where clients can load the media: the external URL for oEmbed
// media, the storage URL otherwise.
func (s *MediaService) URL(ctx context.Context, m *domain.ReviewMedia) (string, error) {
	if m.IsExternal() {
		return *m.ExternalURL, nil
	}
	if m.Image == "" {
		return "", nil
	}
	return s.storage.GetURL(ctx, m.Image)
}

func (s *MediaService) lookupMedia(ctx context.Context, id string) (*domain.ReviewMedia, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.FieldErr("id", domain.CodeRequired, msgRequired)
	}
	pk, err := globalid.DecodeAs(id, globalid.TypeReviewMedia)
	if err != nil {
		return nil, domain.FieldErr("id", domain.CodeInvalid, err.Error())
	}
	m, err := s.media.GetByID(ctx, pk)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, mediaNotFound(id)
		}
		return nil, fmt.Errorf("get review media: %w", err)
	}
	return m, nil
}

// parent loads the review m belongs to. Orphaned media have no parent.
func (s *MediaService) parent(ctx context.Context, m *domain.ReviewMedia) (*domain.Review, error) {
	if m.ReviewID == nil {
		return nil, nil
	}
	review, err := s.reviews.GetByID(ctx, *m.ReviewID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get parent review: %w", err)
	}
	return review, nil
}

func altTooLong() error {
	return domain.FieldErr("input", domain.CodeInvalid,
		fmt.Sprintf("Alt field exceeds the character limit of %d.", domain.AltCharLimit))
}

func unsupportedProvider() error {
	return domain.FieldErr("media_url", domain.CodeUnsupportedMediaProvider, "Unsupported media provider or incorrect URL.")
}

func mediaNotFound(id string) error {
	return domain.FieldErr("id", domain.CodeNotFound, fmt.Sprintf(msgNotFound, id))
}

func imageError(field string, err error) error {
	msg := "Invalid file type."
	if errors.Is(err, media.ErrTooLarge) {
		msg = "File too large."
	}
	return domain.FieldErr(field, domain.CodeInvalid, msg)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
