// Package guard resolves the caller of a protected route from its bearer
// access token, falling back to a one-shot refresh through the
// side-channel refresh token.
package guard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/scriptorium/internal/tokens"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderRefreshToken  = "x_refreshToken"

	bearerPrefix = "Bearer "
)

var (
	ErrMissingToken   = errors.New("guard: missing access token")
	ErrMalformedToken = errors.New("guard: authorization header is not a bearer token")
	ErrInvalidToken   = errors.New("guard: invalid or expired access token")
	ErrRefreshMissing = errors.New("guard: refresh token missing")
	ErrRefreshInvalid = errors.New("guard: invalid or expired refresh token")
	ErrForbidden      = errors.New("guard: role forbidden")
)

// Principal is the authenticated identity of a request.
type Principal struct {
	Username  string
	Role      Role
	ExpiresAt time.Time
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Result is what Authenticate resolved. MintedAccess is set only when the
// refresh path ran; it is never handed back to the client by the
// middleware, callers renew through the refresh endpoint.
type Result struct {
	Principal    Principal
	Refreshed    bool
	MintedAccess string
}

type Guard struct {
	Issuer *tokens.Issuer
}

func New(issuer *tokens.Issuer) *Guard {
	return &Guard{Issuer: issuer}
}

// Authenticate never distinguishes failure causes to the outside: every
// error it returns wraps one of the taxonomy sentinels and maps to the same
// 401. Wrapped errors keep both the access and the refresh cause.
func (g *Guard) Authenticate(authorization, refresh string) (*Result, error) {
	principal, accessErr := g.verifyBearer(authorization)
	if accessErr == nil {
		return &Result{Principal: *principal}, nil
	}

	if refresh == "" {
		return nil, errors.Join(accessErr, ErrRefreshMissing)
	}

	rc, err := g.Issuer.Verify(refresh)
	if err != nil {
		return nil, errors.Join(accessErr, fmt.Errorf("%w: %v", ErrRefreshInvalid, err))
	}

	minted, _, err := g.Issuer.MintAccess(rc.Role, rc.Username)
	if err != nil {
		return nil, errors.Join(accessErr, fmt.Errorf("%w: mint: %v", ErrRefreshInvalid, err))
	}

	claims, err := g.Issuer.Verify(minted)
	if err != nil {
		return nil, errors.Join(accessErr, fmt.Errorf("%w: re-verify: %v", ErrRefreshInvalid, err))
	}

	return &Result{
		Principal:    principalFromClaims(claims),
		Refreshed:    true,
		MintedAccess: minted,
	}, nil
}

// Authorize checks the role requirement of a route. Any authenticated
// principal satisfies RoleUser.
func (g *Guard) Authorize(p Principal, required Role) error {
	if required == RoleAdmin && p.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// Verify decodes a raw token into a Principal.
func (g *Guard) Verify(raw string) (*Principal, error) {
	claims, err := g.Issuer.Verify(raw)
	if err != nil {
		return nil, err
	}
	p := principalFromClaims(claims)
	return &p, nil
}

func (g *Guard) verifyBearer(header string) (*Principal, error) {
	if header == "" {
		return nil, ErrMissingToken
	}
	raw, ok := BearerToken(header)
	if !ok {
		return nil, ErrMalformedToken
	}
	p, err := g.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return p, nil
}

// BearerToken strips the literal "Bearer " prefix.
func BearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	return value[len(bearerPrefix):], true
}

func principalFromClaims(c *tokens.Claims) Principal {
	return Principal{
		Username:  c.Username,
		Role:      Role(c.Role),
		ExpiresAt: time.Unix(c.ExpiresAt, 0),
	}
}
