package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomgo/reviews/internal/storage"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func TestStorage_UploadAndDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := newWithClient(fake, Config{Bucket: "review-media", Region: "eu-west-1"})

	res, err := s.Upload(ctx, &storage.UploadInput{
		Key:         "reviews/a_1.png",
		ContentType: "image/png",
		Size:        3,
		Data:        strings.NewReader("png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://review-media.s3.eu-west-1.amazonaws.com/reviews/a_1.png", res.URL)
	assert.Equal(t, "png", string(fake.objects["reviews/a_1.png"]))
	assert.Equal(t, "image/png", fake.types["reviews/a_1.png"])

	require.NoError(t, s.Delete(ctx, "reviews/a_1.png"))
	assert.ErrorIs(t, s.Delete(ctx, "reviews/a_1.png"), apperrors.ErrNotFound)
}

func TestStorage_Ping(t *testing.T) {
	fake := newFakeS3()
	s := newWithClient(fake, Config{Bucket: "b"})
	assert.NoError(t, s.Ping(context.Background()))

	fake.headErr = errors.New("forbidden")
	assert.Error(t, s.Ping(context.Background()))
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"aws", Config{Bucket: "b", Region: "us-east-1"}, "https://b.s3.us-east-1.amazonaws.com"},
		{"path style endpoint", Config{Bucket: "b", Endpoint: "http://minio:9000/", UsePathStyle: true}, "http://minio:9000/b"},
		{"virtual host endpoint", Config{Bucket: "b", Endpoint: "https://s3.us-west-004.backblazeb2.com"}, "https://b.s3.us-west-004.backblazeb2.com"},
		{"cdn override", Config{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, publicBaseURL(tt.cfg), tt.name)
	}
}
