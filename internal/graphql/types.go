package graphql

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/ecomgo/reviews/internal/domain"
	"github.com/ecomgo/reviews/internal/globalid"
)

type productResolver struct {
	p *domain.Product
}

func (r *productResolver) ID() graphql.ID { return gid(globalid.TypeProduct, r.p.ID) }
func (r *productResolver) Name() string   { return r.p.Name }

type userResolver struct {
	u *domain.User
}

func (r *userResolver) ID() graphql.ID    { return gid(globalid.TypeUser, r.u.ID) }
func (r *userResolver) Email() string     { return r.u.Email }
func (r *userResolver) FirstName() string { return r.u.FirstName }
func (r *userResolver) LastName() string  { return r.u.LastName }

type reviewResolver struct {
	root *Resolver
	r    *domain.Review
}

func (r *reviewResolver) ID() graphql.ID       { return gid(globalid.TypeReview, r.r.ID) }
func (r *reviewResolver) Rating() int32        { return int32(r.r.Rating) }
func (r *reviewResolver) Title() string        { return r.r.Title }
func (r *reviewResolver) Review() string       { return r.r.Body }
func (r *reviewResolver) Status() bool         { return r.r.Status }
func (r *reviewResolver) Helpful() int32       { return int32(r.r.Helpful) }
func (r *reviewResolver) Metadata() JSONString { return toJSONString(r.r.Metadata) }

func (r *reviewResolver) CreatedAt() DateTime {
	return DateTime{graphql.Time{Time: r.r.CreatedAt}}
}

func (r *reviewResolver) UpdatedAt() DateTime {
	return DateTime{graphql.Time{Time: r.r.UpdatedAt}}
}

func (r *reviewResolver) Product(ctx context.Context) (*productResolver, error) {
	p, err := r.root.reviews.Product(ctx, r.r.ProductID)
	if err != nil {
		return nil, r.root.topLevel(ctx, err)
	}
	return &productResolver{p: p}, nil
}

func (r *reviewResolver) User(ctx context.Context) (*userResolver, error) {
	u, err := r.root.reviews.User(ctx, r.r.UserID)
	if err != nil {
		return nil, r.root.topLevel(ctx, err)
	}
	return &userResolver{u: u}, nil
}

func (r *reviewResolver) Media(ctx context.Context) ([]*mediaResolver, error) {
	items, err := r.root.reviews.Media(ctx, r.r.ID)
	if err != nil {
		return nil, r.root.topLevel(ctx, err)
	}
	out := make([]*mediaResolver, 0, len(items))
	for i := range items {
		out = append(out, &mediaResolver{root: r.root, m: &items[i]})
	}
	return out, nil
}

func (r *reviewResolver) MediaByID(ctx context.Context, args struct{ ID graphql.ID }) (*mediaResolver, error) {
	m, err := r.root.reviews.MediaByID(ctx, r.r.ID, string(args.ID))
	if err != nil {
		return nil, r.root.topLevel(ctx, err)
	}
	if m == nil {
		return nil, nil
	}
	return &mediaResolver{root: r.root, m: m}, nil
}

type mediaResolver struct {
	root *Resolver
	m    *domain.ReviewMedia
}

func (r *mediaResolver) ID() graphql.ID { return gid(globalid.TypeReviewMedia, r.m.ID) }

func (r *mediaResolver) ReviewID() *graphql.ID {
	if r.m.ReviewID == nil {
		return nil
	}
	id := gid(globalid.TypeReview, *r.m.ReviewID)
	return &id
}

func (r *mediaResolver) URL(ctx context.Context) (string, error) {
	u, err := r.root.media.URL(ctx, r.m)
	if err != nil {
		return "", r.root.topLevel(ctx, err)
	}
	return u, nil
}

func (r *mediaResolver) Image() *string {
	if r.m.Image == "" {
		return nil
	}
	return &r.m.Image
}

func (r *mediaResolver) ExternalURL() *string {
	if !r.m.IsExternal() {
		return nil
	}
	return r.m.ExternalURL
}

func (r *mediaResolver) Alt() string            { return r.m.Alt }
func (r *mediaResolver) Type() string           { return string(r.m.Type) }
func (r *mediaResolver) OembedData() JSONString { return toJSONString(r.m.OEmbedData) }
func (r *mediaResolver) Metadata() JSONString   { return toJSONString(r.m.Metadata) }

func (r *mediaResolver) SortOrder() *int32 {
	if r.m.SortOrder == nil {
		return nil
	}
	v := int32(*r.m.SortOrder)
	return &v
}

type reviewPayload struct {
	review *reviewResolver
	errors []*reviewError
}

func (p *reviewPayload) Review() *reviewResolver { return p.review }
func (p *reviewPayload) Errors() []*reviewError  { return p.errors }

type mediaPayload struct {
	review *reviewResolver
	media  *mediaResolver
	errors []*reviewError
}

func (p *mediaPayload) Review() *reviewResolver { return p.review }
func (p *mediaPayload) Media() *mediaResolver   { return p.media }
func (p *mediaPayload) Errors() []*reviewError  { return p.errors }

func gid(typ string, pk int64) graphql.ID {
	return graphql.ID(globalid.Encode(typ, pk))
}
