package auth

import (
	"context"
	"errors"

	"github.com/draftroom/pulse/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrIdentityInactive  = errors.New("auth: identity inactive")
	ErrIdentitySuspended = errors.New("auth: identity suspended")
)

// Gate authenticates a connection attempt end to end: token first, then
// account resolution, then account status. Any failure refuses the
// connection before the websocket upgrade happens.
type Gate struct {
	verifier TokenVerifier
	store    IdentityStore
}

func NewGate(verifier TokenVerifier, store IdentityStore) *Gate {
	return &Gate{verifier: verifier, store: store}
}

func (g *Gate) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	sub, err := g.verifier.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}

	acct, err := g.store.Lookup(ctx, sub)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			log.Error().Err(err).Str("module", "auth").Str("user", sub).Msg("identity lookup failed")
		}
		return domain.Identity{}, err
	}

	switch acct.Status {
	case StatusActive:
	case StatusSuspended:
		return domain.Identity{}, ErrIdentitySuspended
	default:
		// Unknown statuses are treated as not-yet-activated accounts.
		return domain.Identity{}, ErrIdentityInactive
	}
	return acct.Identity, nil
}

// Reason renders a gate error as the refusal reason sent to the client.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return "credential missing"
	case errors.Is(err, ErrTokenExpired):
		return "credential expired"
	case errors.Is(err, ErrTokenMalformed):
		return "credential malformed"
	case errors.Is(err, ErrIdentityNotFound):
		return "identity not found"
	case errors.Is(err, ErrIdentityInactive):
		return "identity inactive"
	case errors.Is(err, ErrIdentitySuspended):
		return "identity suspended"
	default:
		return "unauthorized"
	}
}
