package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/scriptorium/internal/tokens"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestGuard(t *testing.T) (*Guard, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss := tokens.NewIssuer([]byte("test-jwt-secret"), time.Hour, 24*time.Hour)
	iss.Now = c.now
	return New(iss), c
}

func mint(t *testing.T, g *Guard, role, username string, refresh bool) string {
	t.Helper()
	var (
		tok string
		err error
	)
	if refresh {
		tok, _, err = g.Issuer.MintRefresh(role, username)
	} else {
		tok, _, err = g.Issuer.MintAccess(role, username)
	}
	require.NoError(t, err)
	return tok
}

func TestAuthenticate_ValidAccessToken(t *testing.T) {
	g, c := newTestGuard(t)
	access := mint(t, g, "USER", "alice", false)

	res, err := g.Authenticate("Bearer "+access, "")
	require.NoError(t, err)
	assert.False(t, res.Refreshed)
	assert.Empty(t, res.MintedAccess)
	assert.Equal(t, "alice", res.Principal.Username)
	assert.Equal(t, RoleUser, res.Principal.Role)
	assert.Equal(t, c.t.Add(time.Hour).Unix(), res.Principal.ExpiresAt.Unix())
}

func TestAuthenticate_Idempotent(t *testing.T) {
	g, _ := newTestGuard(t)
	access := mint(t, g, "ADMIN", "root", false)

	first, err := g.Authenticate("Bearer "+access, "")
	require.NoError(t, err)
	second, err := g.Authenticate("Bearer "+access, "")
	require.NoError(t, err)
	assert.Equal(t, first.Principal, second.Principal)
}

func TestAuthenticate_Rejections(t *testing.T) {
	g, _ := newTestGuard(t)
	access := mint(t, g, "USER", "alice", false)

	tests := []struct {
		name    string
		header  string
		refresh string
		want    []error
	}{
		{name: "missing header", header: "", want: []error{ErrMissingToken, ErrRefreshMissing}},
		{name: "no bearer prefix", header: access, want: []error{ErrMalformedToken, ErrRefreshMissing}},
		{name: "lowercase prefix", header: "bearer " + access, want: []error{ErrMalformedToken, ErrRefreshMissing}},
		{name: "empty bearer", header: "Bearer ", want: []error{ErrInvalidToken, ErrRefreshMissing}},
		{name: "tampered", header: "Bearer " + access + "x", want: []error{ErrInvalidToken, ErrRefreshMissing}},
		{name: "refresh garbage", header: "", refresh: "garbage", want: []error{ErrMissingToken, ErrRefreshInvalid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Authenticate(tt.header, tt.refresh)
			require.Error(t, err)
			assert.Nil(t, res)
			for _, want := range tt.want {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestAuthenticate_ExpiredAccessWithoutRefresh(t *testing.T) {
	g, c := newTestGuard(t)
	access := mint(t, g, "USER", "alice", false)

	c.t = c.t.Add(2 * time.Hour)

	res, err := g.Authenticate("Bearer "+access, "")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrRefreshMissing)
}

func TestAuthenticate_ExpiredAccessWithValidRefresh(t *testing.T) {
	g, c := newTestGuard(t)
	access := mint(t, g, "USER", "alice", false)
	refresh := mint(t, g, "USER", "alice", true)

	c.t = c.t.Add(2 * time.Hour)

	res, err := g.Authenticate("Bearer "+access, refresh)
	require.NoError(t, err)
	assert.True(t, res.Refreshed)
	assert.Equal(t, "alice", res.Principal.Username)
	assert.Equal(t, RoleUser, res.Principal.Role)
	assert.Equal(t, c.t.Add(time.Hour).Unix(), res.Principal.ExpiresAt.Unix())

	// the minted token round-trips to the same identity
	p, err := g.Verify(res.MintedAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, RoleUser, p.Role)
}

func TestAuthenticate_RefreshCarriesRefreshClaims(t *testing.T) {
	g, _ := newTestGuard(t)
	refresh := mint(t, g, "ADMIN", "root", true)

	res, err := g.Authenticate("Bearer not-a-token", refresh)
	require.NoError(t, err)
	assert.Equal(t, "root", res.Principal.Username)
	assert.Equal(t, RoleAdmin, res.Principal.Role)
}

func TestAuthenticate_ExpiredRefresh(t *testing.T) {
	g, c := newTestGuard(t)
	refresh := mint(t, g, "USER", "alice", true)

	c.t = c.t.Add(25 * time.Hour)

	_, err := g.Authenticate("", refresh)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestAuthenticate_AccessTokenWorksAsRefresh(t *testing.T) {
	// both kinds share a secret and claim set, so any valid token can refresh
	g, _ := newTestGuard(t)
	access := mint(t, g, "USER", "alice", false)

	res, err := g.Authenticate("", access)
	require.NoError(t, err)
	assert.True(t, res.Refreshed)
	assert.Equal(t, "alice", res.Principal.Username)
}

func TestAuthorize(t *testing.T) {
	g, _ := newTestGuard(t)

	user := Principal{Username: "alice", Role: RoleUser}
	admin := Principal{Username: "root", Role: RoleAdmin}

	assert.NoError(t, g.Authorize(user, RoleUser))
	assert.NoError(t, g.Authorize(admin, RoleUser))
	assert.NoError(t, g.Authorize(admin, RoleAdmin))
	assert.ErrorIs(t, g.Authorize(user, RoleAdmin), ErrForbidden)
	assert.True(t, admin.IsAdmin())
	assert.False(t, user.IsAdmin())
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
}
