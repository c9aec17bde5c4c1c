package graphql

import (
	"context"
	"mime/multipart"
)

type uploadsKey struct{}

// WithUploads attaches the file parts of a multipart request, keyed by part
// name.
func WithUploads(ctx context.Context, files map[string]*multipart.FileHeader) context.Context {
	return context.WithValue(ctx, uploadsKey{}, files)
}

func uploadFromContext(ctx context.Context, part string) (*multipart.FileHeader, bool) {
	files, _ := ctx.Value(uploadsKey{}).(map[string]*multipart.FileHeader)
	fh, ok := files[part]
	return fh, ok && fh != nil
}
