package graphql

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"log/slog"
	"mime/multipart"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/internal/event"
	"github.com/ecomgo/reviews/internal/media"
	"github.com/ecomgo/reviews/internal/oembed"
	"github.com/ecomgo/reviews/internal/repository"
	"github.com/ecomgo/reviews/internal/service"
	"github.com/ecomgo/reviews/internal/storage/memory"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

// store is an in-memory implementation of the repository interfaces.
type store struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*domain.Product
	users    map[int64]*domain.User
	reviews  map[int64]*domain.Review
	media    map[int64]*domain.ReviewMedia
}

func newStore() *store {
	return &store{
		products: map[int64]*domain.Product{1: {ID: 1, Name: "Kettle"}, 2: {ID: 2, Name: "Toaster"}},
		users:    map[int64]*domain.User{1: {ID: 1, Email: "ann@example.com", FirstName: "Ann"}, 2: {ID: 2, Email: "bo@example.com"}},
		reviews:  map[int64]*domain.Review{},
		media:    map[int64]*domain.ReviewMedia{},
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

type reviewRepo struct{ *store }

func (r reviewRepo) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.ProductID == review.ProductID && existing.UserID == review.UserID {
			return apperrors.AlreadyExists("review", "product_id,user_id", "")
		}
	}
	review.ID = r.id()
	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt
	cp := *review
	r.reviews[review.ID] = &cp
	return nil
}

func (r reviewRepo) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", strconv.FormatInt(id, 10))
	}
	cp := *rv
	return &cp, nil
}

func (r reviewRepo) ExistsForProductUser(_ context.Context, productID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r reviewRepo) List(_ context.Context, f repository.ReviewFilter) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Review{}
	for _, rv := range r.reviews {
		if f.ProductID != nil && rv.ProductID != *f.ProductID {
			continue
		}
		if f.ID != nil && rv.ID != *f.ID {
			continue
		}
		if f.Status != nil && rv.Status != *f.Status {
			continue
		}
		out = append(out, *rv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating < out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r reviewRepo) Moderate(_ context.Context, id int64, status *bool, delta int) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", strconv.FormatInt(id, 10))
	}
	if status != nil {
		rv.Status = *status
	}
	rv.Helpful += delta
	cp := *rv
	return &cp, nil
}

func (r reviewRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", strconv.FormatInt(id, 10))
	}
	delete(r.reviews, id)
	for mid, m := range r.media {
		if m.ReviewID != nil && *m.ReviewID == id {
			delete(r.media, mid)
		}
	}
	return nil
}

type mediaRepo struct{ *store }

func (r mediaRepo) Create(_ context.Context, m *domain.ReviewMedia) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[*m.ReviewID]; !ok {
		return apperrors.NotFound("review", "")
	}
	next := 0
	for _, other := range r.media {
		if *other.ReviewID == *m.ReviewID && other.SortOrder != nil && *other.SortOrder >= next {
			next = *other.SortOrder + 1
		}
	}
	m.ID = r.id()
	m.SortOrder = &next
	cp := *m
	r.media[m.ID] = &cp
	return nil
}

func (r mediaRepo) GetByID(_ context.Context, id int64) (*domain.ReviewMedia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.media[id]
	if !ok {
		return nil, apperrors.NotFound("review media", strconv.FormatInt(id, 10))
	}
	cp := *m
	return &cp, nil
}

func (r mediaRepo) ListByReview(_ context.Context, reviewID int64) ([]domain.ReviewMedia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ReviewMedia{}
	for _, m := range r.media {
		if m.ReviewID != nil && *m.ReviewID == reviewID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if *out[i].SortOrder != *out[j].SortOrder {
			return *out[i].SortOrder < *out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r mediaRepo) UpdateAlt(_ context.Context, id int64, alt string) (*domain.ReviewMedia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.media[id]
	if !ok {
		return nil, apperrors.NotFound("review media", strconv.FormatInt(id, 10))
	}
	m.Alt = alt
	cp := *m
	return &cp, nil
}

func (r mediaRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.media[id]
	if !ok {
		return apperrors.NotFound("review media", strconv.FormatInt(id, 10))
	}
	delete(r.media, id)
	for _, other := range r.media {
		if *other.ReviewID == *m.ReviewID && *other.SortOrder > *m.SortOrder {
			*other.SortOrder--
		}
	}
	return nil
}

type catalogRepo struct{ *store }

func (r catalogRepo) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, apperrors.NotFound("product", strconv.FormatInt(id, 10))
}

func (r catalogRepo) GetUser(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", strconv.FormatInt(id, 10))
}

// stubFetcher never reaches the network.
type stubFetcher struct{}

func (stubFetcher) Check(context.Context, string) error { return media.ErrNotImage }

func (stubFetcher) Download(context.Context, string) (*media.Image, string, error) {
	return nil, "", media.ErrNotImage
}

// stubOEmbed knows a single video.
type stubOEmbed struct{}

func (stubOEmbed) Resolve(_ context.Context, pageURL string) (oembed.Data, error) {
	if pageURL == "https://www.youtube.com/watch?v=demo" {
		return oembed.Data{"type": "video", "title": "Demo", "url": pageURL, "html": "<iframe></iframe>"}, nil
	}
	return nil, oembed.ErrUnsupportedProvider
}

type testEnv struct {
	store *store
	files *memory.Storage
	res   *Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	st := newStore()
	files := memory.New("http://localhost:8012/media")
	notifier := event.NewLogNotifier(logger)

	reviews := service.NewReviewService(reviewRepo{st}, mediaRepo{st}, catalogRepo{st}, files, notifier, logger)
	mediaSvc := service.NewMediaService(reviewRepo{st}, mediaRepo{st}, files, stubFetcher{}, stubOEmbed{}, notifier, media.DefaultMaxSize, logger)

	return &testEnv{store: st, files: files, res: NewResolver(reviews, mediaSvc, logger)}
}

func pngFile(t *testing.T, name string) *multipart.FileHeader {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, imaging.Encode(&img, imaging.New(3, 3, color.NRGBA{B: 255, A: 255}), imaging.PNG))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("0", name)
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["0"][0]
}
