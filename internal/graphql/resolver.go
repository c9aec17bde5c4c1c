// Package graphql exposes reviews and review media over GraphQL.
package graphql

import (
	"context"
	"fmt"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/internal/service"
	"github.com/ecomgo/reviews/pkg/middleware"
)

// Resolver is the root resolver for queries and mutations.
type Resolver struct {
	reviews *service.ReviewService
	media   *service.MediaService
	logger  *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(reviews *service.ReviewService, media *service.MediaService, logger *slog.Logger) *Resolver {
	return &Resolver{reviews: reviews, media: media, logger: logger}
}

func (r *Resolver) wrapReviews(items []domain.Review) []*reviewResolver {
	out := make([]*reviewResolver, 0, len(items))
	for i := range items {
		out = append(out, &reviewResolver{root: r, r: &items[i]})
	}
	return out
}

func (r *Resolver) review(rv *domain.Review) *reviewResolver {
	if rv == nil {
		return nil
	}
	return &reviewResolver{root: r, r: rv}
}

func (r *Resolver) mediaItem(m *domain.ReviewMedia) *mediaResolver {
	if m == nil {
		return nil
	}
	return &mediaResolver{root: r, m: m}
}

// --- Queries ---

type getProductReviewArgs struct {
	Product *graphql.ID
	ID      *graphql.ID
	Status  *bool
}

func (r *Resolver) GetProductReview(ctx context.Context, args getProductReviewArgs) (*[]*reviewResolver, error) {
	q := service.ReviewQuery{Status: args.Status}
	if args.Product != nil {
		s := string(*args.Product)
		q.Product = &s
	}
	if args.ID != nil {
		s := string(*args.ID)
		q.ID = &s
	}

	items, err := r.reviews.Find(ctx, q)
	if err != nil {
		return nil, r.topLevel(ctx, err)
	}
	if items == nil {
		return nil, nil
	}
	out := r.wrapReviews(items)
	return &out, nil
}

func (r *Resolver) GetProductReviews(ctx context.Context) ([]*reviewResolver, error) {
	items, err := r.reviews.List(ctx)
	if err != nil {
		return nil, r.topLevel(ctx, err)
	}
	return r.wrapReviews(items), nil
}

// GetAllProductReviews is kept for clients of the older API.
func (r *Resolver) GetAllProductReviews(ctx context.Context) ([]*reviewResolver, error) {
	return r.GetProductReviews(ctx)
}

// --- Review mutations ---

type submitProductReviewInput struct {
	Product *graphql.ID
	User    *graphql.ID
	Rating  *int32
	Title   *string
	Review  *string
}

func (r *Resolver) SubmitProductReview(ctx context.Context, args struct{ Input submitProductReviewInput }) (*reviewPayload, error) {
	in := &service.SubmitReviewInput{
		Product: idValue(args.Input.Product),
		User:    idValue(args.Input.User),
		Title:   strValue(args.Input.Title),
		Review:  strValue(args.Input.Review),
	}
	if args.Input.Rating != nil {
		v := int(*args.Input.Rating)
		in.Rating = &v
	}

	review, err := r.reviews.Submit(ctx, in)
	if err != nil {
		return r.reviewFailure(ctx, err)
	}
	return &reviewPayload{review: r.review(review), errors: []*reviewError{}}, nil
}

type updateProductReviewInput struct {
	ID        graphql.ID
	Status    *bool
	IsHelpful *bool
}

func (r *Resolver) UpdateProductReview(ctx context.Context, args struct{ Input updateProductReviewInput }) (*reviewPayload, error) {
	if err := requireManageProducts(ctx); err != nil {
		return nil, err
	}
	review, err := r.reviews.Update(ctx, &service.UpdateReviewInput{
		ID:        string(args.Input.ID),
		Status:    args.Input.Status,
		IsHelpful: args.Input.IsHelpful,
	})
	if err != nil {
		return r.reviewFailure(ctx, err)
	}
	return &reviewPayload{review: r.review(review), errors: []*reviewError{}}, nil
}

func (r *Resolver) DeleteProductReview(ctx context.Context, args struct{ ID graphql.ID }) (*reviewPayload, error) {
	if err := requireManageProducts(ctx); err != nil {
		return nil, err
	}
	review, err := r.reviews.Delete(ctx, string(args.ID))
	if err != nil {
		return r.reviewFailure(ctx, err)
	}
	return &reviewPayload{review: r.review(review), errors: []*reviewError{}}, nil
}

func (r *Resolver) reviewFailure(ctx context.Context, err error) (*reviewPayload, error) {
	fieldErrs, err := r.payloadErrors(ctx, err)
	if err != nil {
		return nil, err
	}
	return &reviewPayload{errors: fieldErrs}, nil
}

// --- Media mutations ---

type createReviewMediaInput struct {
	Review   graphql.ID
	Alt      *string
	Image    *Upload
	MediaURL *string
}

func (r *Resolver) CreateReviewMedia(ctx context.Context, args struct{ Input createReviewMediaInput }) (*mediaPayload, error) {
	in := &service.CreateMediaInput{
		Review:   string(args.Input.Review),
		Alt:      args.Input.Alt,
		MediaURL: args.Input.MediaURL,
	}
	if args.Input.Image != nil {
		up := &service.Upload{}
		if fh, ok := uploadFromContext(ctx, args.Input.Image.Part); ok {
			f, err := fh.Open()
			if err != nil {
				return nil, r.topLevel(ctx, fmt.Errorf("open upload %q: %w", fh.Filename, err))
			}
			defer f.Close()
			up.Filename = fh.Filename
			up.ContentType = fh.Header.Get("Content-Type")
			up.Data = f
		}
		in.Image = up
	}

	review, m, err := r.media.Create(ctx, in)
	if err != nil {
		return r.mediaFailure(ctx, err)
	}
	return &mediaPayload{review: r.review(review), media: r.mediaItem(m), errors: []*reviewError{}}, nil
}

type updateReviewMediaInput struct {
	Alt *string
}

func (r *Resolver) UpdateReviewMedia(ctx context.Context, args struct {
	ID    graphql.ID
	Input updateReviewMediaInput
}) (*mediaPayload, error) {
	review, m, err := r.media.Update(ctx, string(args.ID), args.Input.Alt)
	if err != nil {
		return r.mediaFailure(ctx, err)
	}
	return &mediaPayload{review: r.review(review), media: r.mediaItem(m), errors: []*reviewError{}}, nil
}

func (r *Resolver) DeleteReviewMedia(ctx context.Context, args struct{ ID graphql.ID }) (*mediaPayload, error) {
	review, m, err := r.media.Delete(ctx, string(args.ID))
	if err != nil {
		return r.mediaFailure(ctx, err)
	}
	return &mediaPayload{review: r.review(review), media: r.mediaItem(m), errors: []*reviewError{}}, nil
}

func (r *Resolver) mediaFailure(ctx context.Context, err error) (*mediaPayload, error) {
	fieldErrs, err := r.payloadErrors(ctx, err)
	if err != nil {
		return nil, err
	}
	return &mediaPayload{errors: fieldErrs}, nil
}

func requireManageProducts(ctx context.Context) error {
	if !middleware.ClaimsFromContext(ctx).HasPermission(middleware.PermissionManageProducts) {
		return &Error{
			Code:    codePermissionDenied,
			Message: "You need the " + middleware.PermissionManageProducts + " permission to perform this action.",
		}
	}
	return nil
}

func idValue(id *graphql.ID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
