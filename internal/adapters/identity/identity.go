// Package identity resolves the acting user for the quote services. The
// HTTP layer stores the caller in the request context; the CLI uses a fixed
// user.
package identity

import (
	"context"

	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

type ctxKey struct{}

// WithUser stores the acting user in ctx.
func WithUser(ctx context.Context, u *domain.UserAccount) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the acting user stored in ctx.
func UserFromContext(ctx context.Context) (*domain.UserAccount, bool) {
	if ctx == nil {
		return nil, false
	}

	u, ok := ctx.Value(ctxKey{}).(*domain.UserAccount)

	return u, ok && u != nil && u.ID != ""
}

// ContextResolver reads the user placed in the context by the HTTP layer.
type ContextResolver struct{}

var _ ports.IdentityResolver = ContextResolver{}

// CurrentUser implements ports.IdentityResolver.
func (ContextResolver) CurrentUser(ctx context.Context) (*domain.UserAccount, error) {
	if u, ok := UserFromContext(ctx); ok {
		return u, nil
	}

	return nil, domain.ErrUnresolvedActor
}

// Static always resolves to the same user. An empty id resolves to
// nobody.
type Static struct {
	User domain.UserAccount
}

var _ ports.IdentityResolver = Static{}

// CurrentUser implements ports.IdentityResolver.
func (s Static) CurrentUser(_ context.Context) (*domain.UserAccount, error) {
	if s.User.ID == "" {
		return nil, domain.ErrUnresolvedActor
	}

	u := s.User

	return &u, nil
}
