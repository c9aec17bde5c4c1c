// Package oembed resolves media page URLs into oEmbed metadata.
package oembed

import (
	"regexp"
)

// Provider is an oEmbed endpoint and the page URLs it understands.
type Provider struct {
	Name     string
	Endpoint string
	Patterns []*regexp.Regexp
}

// Matches reports whether the provider handles rawURL.
func (p Provider) Matches(rawURL string) bool {
	for _, re := range p.Patterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// DefaultProviders lists the video and photo hosts reviews may link to.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:     "YouTube",
			Endpoint: "https://www.youtube.com/oembed",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`^https?://(?:[-\w]+\.)?youtube\.com/(?:watch|shorts|playlist|embed)\S*`),
				regexp.MustCompile(`^https?://youtu\.be/\S+`),
			},
		},
		{
			Name:     "Vimeo",
			Endpoint: "https://vimeo.com/api/oembed.json",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`^https?://(?:www\.|player\.)?vimeo\.com/\S+`),
			},
		},
		{
			Name:     "Dailymotion",
			Endpoint: "https://www.dailymotion.com/services/oembed",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`^https?://(?:www\.)?dailymotion\.com/video/\S+`),
				regexp.MustCompile(`^https?://dai\.ly/\S+`),
			},
		},
		{
			Name:     "Flickr",
			Endpoint: "https://www.flickr.com/services/oembed/",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`^https?://(?:www\.)?flickr\.com/photos/\S+`),
				regexp.MustCompile(`^https?://flic\.kr/\S+`),
			},
		},
		{
			Name:     "Instagram",
			Endpoint: "https://graph.facebook.com/v16.0/instagram_oembed",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/(?:p|reel)/\S+`),
			},
		},
	}
}
