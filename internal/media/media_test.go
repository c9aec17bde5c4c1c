package media

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomgo/reviews/pkg/httpclient"
)

func encodeImage(t *testing.T, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(6, 4, color.NRGBA{R: 200, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestReadImage(t *testing.T) {
	png := encodeImage(t, imaging.PNG)
	jpg := encodeImage(t, imaging.JPEG)

	img, err := ReadImage(bytes.NewReader(png), 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Ext)
	assert.Equal(t, 6, img.Width)
	assert.Equal(t, 4, img.Height)
	assert.Equal(t, int64(len(png)), img.Size())

	img, err = ReadImage(bytes.NewReader(jpg), 0)
	require.NoError(t, err)
	assert.Equal(t, ".jpg", img.Ext)
}

func TestReadImage_Rejects(t *testing.T) {
	png := encodeImage(t, imaging.PNG)

	tests := []struct {
		name    string
		data    []byte
		maxSize int64
		want    error
	}{
		{"empty", nil, 0, ErrUnsupportedImage},
		{"text", []byte("hello, not an image"), 0, ErrUnsupportedImage},
		{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 0, ErrUnsupportedImage},
		{"truncated png", png[:len(png)/2], 0, ErrUnsupportedImage},
		{"too large", png, int64(len(png) - 1), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadImage(bytes.NewReader(tt.data), tt.maxSize)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsImageURL(t *testing.T) {
	assert.True(t, IsImageURL("https://cdn.example.com/a/b/photo.JPG"))
	assert.True(t, IsImageURL("https://cdn.example.com/p.webp?size=large"))
	assert.False(t, IsImageURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.False(t, IsImageURL("https://example.com/download?file=a.png"))
	assert.False(t, IsImageURL("://bad"))
}

func newTestFetcher(maxSize int64) *Fetcher {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.FollowRedirects = false
	cfg.Timeout = 5 * time.Second
	return NewFetcher(httpclient.New(cfg), maxSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetcher_CheckAndDownload(t *testing.T) {
	png := encodeImage(t, imaging.PNG)
	gets := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			w.Header().Set("Content-Type", "image/png")
			if r.Method == http.MethodGet {
				gets++
				_, _ = w.Write(png)
			}
		case "/page.png":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		case "/moved.png":
			http.Redirect(w, r, "/photo.png", http.StatusFound)
		case "/flaky.png":
			gets++
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := newTestFetcher(0)
	ctx := context.Background()

	require.NoError(t, f.Check(ctx, srv.URL+"/photo.png"))
	assert.ErrorIs(t, f.Check(ctx, srv.URL+"/page.png"), ErrNotImage)
	assert.ErrorIs(t, f.Check(ctx, srv.URL+"/missing.png"), ErrNotImage)

	img, name, err := f.Download(ctx, srv.URL+"/photo.png")
	require.NoError(t, err)
	assert.Equal(t, "photo.png", name)
	assert.Equal(t, png, img.Data)
	assert.Equal(t, 1, gets)

	_, _, err = f.Download(ctx, srv.URL+"/moved.png")
	assert.ErrorIs(t, err, ErrNotImage)

	_, _, err = f.Download(ctx, srv.URL+"/flaky.png")
	assert.ErrorIs(t, err, ErrNotImage)
	assert.Equal(t, 2, gets, "download is attempted once")
}

func TestFetcher_DownloadRejectsOversized(t *testing.T) {
	png := encodeImage(t, imaging.PNG)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	_, _, err := newTestFetcher(10).Download(context.Background(), srv.URL+"/a.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetcher_DownloadRejectsNonImageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.Copy(w, strings.NewReader("<html>nope</html>"))
	}))
	defer srv.Close()

	_, _, err := newTestFetcher(0).Download(context.Background(), srv.URL+"/a.png")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
