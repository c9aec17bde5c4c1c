package oembed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ecomgo/reviews/pkg/httpclient"
)

var (
	// ErrUnsupportedProvider means no provider handles the URL.
	ErrUnsupportedProvider = errors.New("unsupported media provider")
	// ErrFetchFailed means the provider could not describe the URL.
	ErrFetchFailed = errors.New("oembed request failed")
)

const maxResponseSize = 1 << 20

// Data is the raw oEmbed response. "type" and "url" are always present on
// data returned by Resolve.
type Data map[string]any

// Type returns the oEmbed resource type.
func (d Data) Type() string {
	s, _ := d["type"].(string)
	return s
}

// URL returns the resource URL.
func (d Data) URL() string {
	s, _ := d["url"].(string)
	return s
}

// Title returns the resource title, if any.
func (d Data) Title() string {
	s, _ := d["title"].(string)
	return s
}

// Cache stores resolved responses by page URL. Lookups that miss return
// (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, pageURL string) (Data, bool, error)
	Set(ctx context.Context, pageURL string, data Data, ttl time.Duration) error
}

// Resolver looks up oEmbed data through the configured providers.
type Resolver struct {
	providers []Provider
	client    httpclient.Requester
	cache     Cache
	ttl       time.Duration
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache enables caching of successful lookups for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithProviders replaces DefaultProviders.
func WithProviders(p ...Provider) Option {
	return func(r *Resolver) { r.providers = p }
}

// NewResolver creates a Resolver.
func NewResolver(client httpclient.Requester, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		providers: DefaultProviders(),
		client:    client,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the oEmbed data describing pageURL.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (Data, error) {
	provider, ok := r.providerFor(pageURL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, pageURL)
	}

	if r.cache != nil {
		data, hit, err := r.cache.Get(ctx, pageURL)
		if err != nil {
			r.logger.WarnContext(ctx, "oembed cache lookup failed", slog.String("error", err.Error()))
		} else if hit {
			return data, nil
		}
	}

	data, err := r.fetch(ctx, provider, pageURL)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, pageURL, data, r.ttl); err != nil {
			r.logger.WarnContext(ctx, "oembed cache store failed", slog.String("error", err.Error()))
		}
	}
	return data, nil
}

func (r *Resolver) providerFor(pageURL string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Matches(pageURL) {
			return p, true
		}
	}
	return Provider{}, false
}

func (r *Resolver) fetch(ctx context.Context, p Provider, pageURL string) (Data, error) {
	endpoint, err := url.Parse(p.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse %s endpoint: %w", p.Name, err)
	}
	q := endpoint.Query()
	q.Set("url", pageURL)
	q.Set("format", "json")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create oembed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, p.Name, err)
	}
	defer resp.Body.Close()

	if err := httpclient.CheckResponse(resp, p.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	var data Data
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %v", ErrFetchFailed, p.Name, err)
	}
	if data.Type() == "" {
		return nil, fmt.Errorf("%w: %s response has no type", ErrFetchFailed, p.Name)
	}
	// Video and rich responses carry no url; the page itself is the resource.
	if data.URL() == "" {
		data["url"] = pageURL
	}

	r.logger.DebugContext(ctx, "oembed resolved",
		slog.String("provider", p.Name),
		slog.String("type", data.Type()),
	)
	return data, nil
}
