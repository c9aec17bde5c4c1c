package service

import (
	"errors"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/pkg/validator"
)

type reviewText struct {
	Title  string `json:"title" validate:"max=255"`
	Review string `json:"review" validate:"max=20000"`
}

type mediaURL struct {
	MediaURL string `json:"media_url" validate:"url,max=1024"`
}

func validateText(title, review string) error {
	return fieldErrors(validator.Validate(reviewText{Title: title, Review: review}))
}

func validateMediaURL(raw string) error {
	return fieldErrors(validator.Validate(mediaURL{MediaURL: raw}))
}

// fieldErrors converts struct validation failures into INVALID field errors.
func fieldErrors(err error) error {
	if err == nil {
		return nil
	}
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	ve := domain.NewValidationError()
	for _, v := range verr.Violations {
		ve.Add(v.Field, domain.CodeInvalid, v.Message)
	}
	return ve
}
