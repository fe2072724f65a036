package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 24 * time.Hour
)

var (
	ErrEmptySecret = errors.New("tokens: empty signing secret")
	ErrBadClaims   = errors.New("tokens: missing role or username")
)

// Claims is the payload carried by both access and refresh tokens.
type Claims struct {
	Role      string `json:"role"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expiresAt"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256 tokens with one shared secret.
type Issuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		Secret:     secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// MintAccess signs an access token for role/username expiring AccessTTL from now.
func (i *Issuer) MintAccess(role, username string) (string, time.Time, error) {
	return i.mint(role, username, i.AccessTTL)
}

// MintRefresh signs a refresh token for role/username expiring RefreshTTL from now.
func (i *Issuer) MintRefresh(role, username string) (string, time.Time, error) {
	return i.mint(role, username, i.RefreshTTL)
}

func (i *Issuer) mint(role, username string, ttl time.Duration) (string, time.Time, error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, ErrEmptySecret
	}
	if role == "" || username == "" {
		return "", time.Time{}, ErrBadClaims
	}

	now := i.now()
	exp := now.Add(ttl)
	claims := Claims{
		Role:      role,
		Username:  username,
		ExpiresAt: exp.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, time.Unix(exp.Unix(), 0), nil
}

// Verify checks signature and expiry and returns the decoded claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	if len(i.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	if claims.Role == "" || claims.Username == "" {
		return nil, ErrBadClaims
	}
	return &claims, nil
}
