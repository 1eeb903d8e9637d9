package ports

import (
	"context"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// IdentityResolver returns the user acting on the current request.
// It returns domain.ErrUnresolvedActor when no user can be determined.
type IdentityResolver interface {
	CurrentUser(ctx context.Context) (*domain.UserAccount, error)
}

// AccountDirectory looks up customer accounts.
// Returns domain.ErrNotFound for unknown ids and domain.ErrUnavailable
// when the directory cannot be reached.
type AccountDirectory interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}
