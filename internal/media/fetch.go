package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/ecomgo/reviews/pkg/httpclient"
)

// ErrNotImage is returned when a remote URL does not answer with an image.
var ErrNotImage = errors.New("url does not point to an image")

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {},
}

// IsImageURL reports whether raw looks like a direct link to an image file,
// judged by the extension of its path.
func IsImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	_, ok := imageExtensions[strings.ToLower(path.Ext(u.Path))]
	return ok
}

// Fetcher downloads remote images. The underlying client is expected not to
// retry or follow redirects.
type Fetcher struct {
	client  httpclient.Requester
	maxSize int64
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(client httpclient.Requester, maxSize int64, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, maxSize: maxSize, logger: logger}
}

// Check issues a HEAD request and verifies the URL answers 2xx with an
// image/* content type.
func (f *Fetcher) Check(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	resp, err := f.client.Do(ctx, req)
	if err != nil {
		f.logger.DebugContext(ctx, "image url check failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrNotImage, resp.StatusCode)
	}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: content type %q", ErrNotImage, mediaType)
	}
	return nil
}

// Download fetches the image in a single attempt and validates it. The
// returned name is the last path segment of the URL.
func (f *Fetcher) Download(ctx context.Context, rawURL string) (*Image, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: download returned status %d", ErrNotImage, resp.StatusCode)
	}

	img, err := ReadImage(resp.Body, f.maxSize)
	if err != nil {
		return nil, "", err
	}
	return img, path.Base(req.URL.Path), nil
}
