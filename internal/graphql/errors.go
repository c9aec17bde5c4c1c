package graphql

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ecomgo/reviews/internal/domain"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
	"github.com/ecomgo/reviews/pkg/logger"
)

// Error is a top-level GraphQL error carrying extensions.code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Extensions is read by graphql-go when building the response.
func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": e.Code}
}

const codePermissionDenied = "PERMISSION_DENIED"

type reviewError struct {
	fe domain.FieldError
}

func (e *reviewError) Field() *string {
	if e.fe.Field == "" {
		return nil
	}
	f := e.fe.Field
	return &f
}

func (e *reviewError) Code() string { return string(e.fe.Code) }

func (e *reviewError) Message() *string {
	m := e.fe.Message
	return &m
}

// payloadErrors splits err into field errors for the payload. Any other
// error is returned for the top-level errors list.
func (r *Resolver) payloadErrors(ctx context.Context, err error) ([]*reviewError, error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		out := make([]*reviewError, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			out = append(out, &reviewError{fe: fe})
		}
		return out, nil
	}
	return nil, r.topLevel(ctx, err)
}

// topLevel converts err into an Error safe to show to clients.
func (r *Resolver) topLevel(ctx context.Context, err error) error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}

	code := apperrors.Code(err)
	status := apperrors.HTTPStatus(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.WithContext(ctx, r.logger).ErrorContext(ctx, "graphql resolver failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	return &Error{Code: code, Message: msg}
}
