package local

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomgo/reviews/internal/storage"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

func TestStorage_UploadServeDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := New(root, "http://localhost:8012/media/")
	require.NoError(t, err)

	res, err := s.Upload(ctx, &storage.UploadInput{Key: "reviews/cat_1.png", Data: strings.NewReader("meow")})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8012/media/reviews/cat_1.png", res.URL)

	data, err := os.ReadFile(filepath.Join(root, "reviews", "cat_1.png"))
	require.NoError(t, err)
	assert.Equal(t, "meow", string(data))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reviews/cat_1.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "meow", rec.Body.String())

	require.NoError(t, s.Delete(ctx, "reviews/cat_1.png"))
	assert.ErrorIs(t, s.Delete(ctx, "reviews/cat_1.png"), apperrors.ErrNotFound)
}

func TestStorage_RejectsEscapingKeys(t *testing.T) {
	s, err := New(t.TempDir(), "http://x")
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), &storage.UploadInput{Key: "../outside.png", Data: strings.NewReader("x")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
