package port

import "github.com/parleyhq/parley/internal/core/domain"

// TokenVerifier is the auth collaborator. Verify returns
// domain.ErrExpiredToken or domain.ErrInvalidToken on failure.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}
