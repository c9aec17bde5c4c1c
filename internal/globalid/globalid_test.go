package globalid

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "UmV2aWV3OjE=", Encode(TypeReview, 1))
	assert.Equal(t, "UHJvZHVjdDo3Mg==", Encode(TypeProduct, 72))
}

func TestDecode(t *testing.T) {
	typ, pk, err := Decode(Encode(TypeReviewMedia, 42))
	require.NoError(t, err)
	assert.Equal(t, TypeReviewMedia, typ)
	assert.Equal(t, int64(42), pk)

	typ, pk, err = Decode("UmV2aWV3OjE")
	require.NoError(t, err)
	assert.Equal(t, TypeReview, typ)
	assert.Equal(t, int64(1), pk)
}

func TestDecode_Malformed(t *testing.T) {
	for _, id := range []string{
		"",
		"not base64!",
		base64.StdEncoding.EncodeToString([]byte("Review")),
		base64.StdEncoding.EncodeToString([]byte("Review:abc")),
		base64.StdEncoding.EncodeToString([]byte("Review:0")),
		base64.StdEncoding.EncodeToString([]byte(":5")),
	} {
		_, _, err := Decode(id)
		assert.ErrorIs(t, err, ErrMalformed, id)
	}
}

func TestDecodeAs(t *testing.T) {
	pk, err := DecodeAs(Encode(TypeUser, 9), TypeUser)
	require.NoError(t, err)
	assert.Equal(t, int64(9), pk)

	_, err = DecodeAs(Encode(TypeUser, 9), TypeProduct)
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = DecodeAs("garbage", TypeProduct)
	assert.ErrorIs(t, err, ErrMalformed)
}
