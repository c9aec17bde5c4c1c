package oembed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomgo/reviews/pkg/httpclient"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 5 * time.Second
	return httpclient.New(cfg)
}

// fakeProvider serves oEmbed responses keyed by the requested page URL.
func fakeProvider(t *testing.T, responses map[string]map[string]any) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		body, ok := responses[r.URL.Query().Get("url")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testProvider(endpoint string) Provider {
	return Provider{
		Name:     "TestTube",
		Endpoint: endpoint,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`^https://tube\.test/\S+`)},
	}
}

func TestResolve_Video(t *testing.T) {
	srv, _ := fakeProvider(t, map[string]map[string]any{
		"https://tube.test/v/1": {"type": "video", "title": "Unboxing", "html": "<iframe></iframe>"},
	})
	r := NewResolver(newClient(), quietLogger(), WithProviders(testProvider(srv.URL)))

	data, err := r.Resolve(context.Background(), "https://tube.test/v/1")
	require.NoError(t, err)
	assert.Equal(t, "video", data.Type())
	assert.Equal(t, "Unboxing", data.Title())
	assert.Equal(t, "https://tube.test/v/1", data.URL())
}

func TestResolve_PhotoKeepsProviderURL(t *testing.T) {
	srv, _ := fakeProvider(t, map[string]map[string]any{
		"https://tube.test/p/2": {"type": "photo", "url": "https://img.tube.test/2.jpg"},
	})
	r := NewResolver(newClient(), quietLogger(), WithProviders(testProvider(srv.URL)))

	data, err := r.Resolve(context.Background(), "https://tube.test/p/2")
	require.NoError(t, err)
	assert.Equal(t, "https://img.tube.test/2.jpg", data.URL())
}

func TestResolve_Errors(t *testing.T) {
	srv, _ := fakeProvider(t, map[string]map[string]any{
		"https://tube.test/untyped": {"title": "no type"},
	})
	r := NewResolver(newClient(), quietLogger(), WithProviders(testProvider(srv.URL)))

	_, err := r.Resolve(context.Background(), "https://unknown.example/video/1")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = r.Resolve(context.Background(), "https://tube.test/missing")
	assert.ErrorIs(t, err, ErrFetchFailed)

	_, err = r.Resolve(context.Background(), "https://tube.test/untyped")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestResolve_UsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	srv, calls := fakeProvider(t, map[string]map[string]any{
		"https://tube.test/v/9": {"type": "video", "title": "Cached"},
	})
	r := NewResolver(newClient(), quietLogger(),
		WithProviders(testProvider(srv.URL)),
		WithCache(NewRedisCache(client), time.Hour),
	)

	for range 3 {
		data, err := r.Resolve(context.Background(), "https://tube.test/v/9")
		require.NoError(t, err)
		assert.Equal(t, "Cached", data.Title())
	}
	assert.Equal(t, 1, *calls)

	ttl := mr.TTL(cacheKey("https://tube.test/v/9"))
	assert.Equal(t, time.Hour, ttl)
}

func TestResolve_CacheFailureFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	srv, calls := fakeProvider(t, map[string]map[string]any{
		"https://tube.test/v/3": {"type": "video"},
	})
	r := NewResolver(newClient(), quietLogger(),
		WithProviders(testProvider(srv.URL)),
		WithCache(NewRedisCache(client), time.Minute),
	)

	_, err := r.Resolve(context.Background(), "https://tube.test/v/3")
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
}

func TestRedisCache_Miss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	data, hit, err := NewRedisCache(client).Get(context.Background(), "https://tube.test/none")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)
}

func TestDefaultProviders_Match(t *testing.T) {
	r := NewResolver(nil, quietLogger())

	tests := map[string]string{
		"https://www.youtube.com/watch?v=XB-wiC2AGoM": "YouTube",
		"https://youtu.be/XB-wiC2AGoM":                "YouTube",
		"https://vimeo.com/76979871":                  "Vimeo",
		"https://www.dailymotion.com/video/x7tgad0":   "Dailymotion",
		"https://www.flickr.com/photos/bees/2341623661": "Flickr",
	}
	for u, want := range tests {
		p, ok := r.providerFor(u)
		require.True(t, ok, u)
		assert.Equal(t, want, p.Name)
	}

	_, ok := r.providerFor("https://example.com/watch?v=1")
	assert.False(t, ok)
}
