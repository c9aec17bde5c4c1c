package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKey(t *testing.T) {
	tests := []struct {
		name, ext string
		pattern   string
	}{
		{"photo.png", "", `^reviews/photo_[0-9a-f]{8}\.png$`},
		{"IMG 01.JPG", "", `^reviews/IMG_01_[0-9a-f]{8}\.jpg$`},
		{"../../etc/passwd", "", `^reviews/passwd_[0-9a-f]{8}$`},
		{`C:\Users\me\cat.webp`, "", `^reviews/cat_[0-9a-f]{8}\.webp$`},
		{"", ".gif", `^reviews/image_[0-9a-f]{8}\.gif$`},
		{"download", ".jpg", `^reviews/download_[0-9a-f]{8}\.jpg$`},
	}
	for _, tt := range tests {
		assert.Regexp(t, regexp.MustCompile(tt.pattern), NewKey(tt.name, tt.ext), tt.name)
	}
}

func TestNewKey_Unique(t *testing.T) {
	assert.NotEqual(t, NewKey("a.png", ""), NewKey("a.png", ""))
}
