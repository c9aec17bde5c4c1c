// Package media validates review images and downloads remote ones.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // registers the WebP decoder with image.Decode
)

// DefaultMaxSize caps uploaded and downloaded images.
const DefaultMaxSize int64 = 10 << 20

var (
	// ErrUnsupportedImage is returned for content that is not an allowed,
	// decodable image.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrTooLarge is returned when an image exceeds the size limit.
	ErrTooLarge = errors.New("image too large")
)

// allowed maps accepted MIME types to the extension stored files get.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Image is a validated image held in memory.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Size returns the number of bytes.
func (i *Image) Size() int64 { return int64(len(i.Data)) }

// Reader returns a fresh reader over the image bytes.
func (i *Image) Reader() io.Reader { return bytes.NewReader(i.Data) }

// ReadImage reads at most maxSize bytes from r, sniffs the content type and
// fully decodes the image. Declared content types and file names are never
// trusted.
func ReadImage(r io.Reader, maxSize int64) (*Image, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowed[mtype.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	bounds := img.Bounds()

	return &Image{
		Data:        data,
		ContentType: mtype.String(),
		Ext:         ext,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
