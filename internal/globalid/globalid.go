// Package globalid encodes object ids as opaque base64("<Type>:<pk>") strings.
package globalid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Object type names carried in global ids.
const (
	TypeReview      = "Review"
	TypeReviewMedia = "ReviewMedia"
	TypeProduct     = "Product"
	TypeUser        = "User"
)

var (
	// ErrMalformed is returned for strings that are not a global id.
	ErrMalformed = errors.New("malformed global id")
	// ErrWrongType is returned when the id names a different object type.
	ErrWrongType = errors.New("global id has wrong type")
)

// Encode builds the global id of object typ with primary key pk.
func Encode(typ string, pk int64) string {
	return base64.StdEncoding.EncodeToString([]byte(typ + ":" + strconv.FormatInt(pk, 10)))
}

// Decode splits a global id into its type and primary key.
func Decode(id string) (string, int64, error) {
	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		// Some clients strip padding.
		raw, err = base64.RawStdEncoding.DecodeString(id)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %q", ErrMalformed, id)
		}
	}
	typ, pkStr, ok := strings.Cut(string(raw), ":")
	if !ok || typ == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, id)
	}
	pk, err := strconv.ParseInt(pkStr, 10, 64)
	if err != nil || pk <= 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformed, id)
	}
	return typ, pk, nil
}

// DecodeAs decodes id and checks that it names an object of type typ.
func DecodeAs(id, typ string) (int64, error) {
	got, pk, err := Decode(id)
	if err != nil {
		return 0, err
	}
	if got != typ {
		return 0, fmt.Errorf("%w: must receive a %s id", ErrWrongType, typ)
	}
	return pk, nil
}
