package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/hash"
	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/models"
	"github.com/Skotchmaster/scriptorium/internal/mykafka"
	"github.com/Skotchmaster/scriptorium/internal/repo"
	"github.com/Skotchmaster/scriptorium/internal/tokens"
)

const minPasswordLen = 6

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

type AccountService struct {
	Repo   *repo.GormRepo
	Issuer *tokens.Issuer
	Events EventPublisher
}

type RegisterInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
}

type ProfilePatch struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar"`
	Password  *string `json:"password"`
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken,omitempty"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt,omitempty"`
}

func validPassword(p string) error {
	if len(p) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	username := strings.TrimSpace(in.Username)
	if !usernameRe.MatchString(username) {
		return nil, invalid("username must be 3-32 letters, digits, dots, dashes or underscores")
	}
	if err := validPassword(in.Password); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Avatar:       strings.TrimSpace(in.Avatar),
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, ErrConflict
		}
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, mykafka.NewEvent("user.registered", user.ID, user.Username, nil))
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	u, err := activeUser(ctx, s.Repo, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	access, accessExp, err := s.Issuer.MintAccess(u.Role, u.Username)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.Issuer.MintRefresh(u.Role, u.Username)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, mykafka.NewEvent("user.logged_in", u.ID, u.Username, nil))
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh mints a new access token from a valid refresh token. Like the
// guard, it trusts the token claims and does not consult the database.
func (s *AccountService) Refresh(_ context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.Issuer.Verify(refreshToken)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	access, exp, err := s.Issuer.MintAccess(claims.Role, claims.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, AccessExpiresAt: exp}, nil
}

func (s *AccountService) Profile(ctx context.Context, username string) (*models.User, error) {
	return activeUser(ctx, s.Repo, username)
}

func (s *AccountService) UpdateProfile(ctx context.Context, username string, p ProfilePatch) (*models.User, error) {
	u, err := activeUser(ctx, s.Repo, username)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Email, p.Email)
	set(&u.Phone, p.Phone)
	set(&u.Avatar, p.Avatar)

	if p.Password != nil {
		if err := validPassword(*p.Password); err != nil {
			return nil, err
		}
		pwHash, err := hash.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = pwHash
	}

	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete soft-deletes the account. Issued tokens stay valid until they
// expire; handlers reject the account on lookup.
func (s *AccountService) Delete(ctx context.Context, username string) error {
	u, err := activeUser(ctx, s.Repo, username)
	if err != nil {
		return err
	}
	u.Deleted = true
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return err
	}
	publish(ctx, s.Events, mykafka.TopicUserEvents, mykafka.NewEvent("user.deleted", u.ID, u.Username, nil))
	return nil
}

func (s *AccountService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, offset, limit)
}

func (s *AccountService) SetRole(ctx context.Context, actor Actor, username, role string) (*models.User, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, invalid("role must be USER or ADMIN")
	}

	u, err := activeUser(ctx, s.Repo, username)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicModerationEvents,
		mykafka.NewEvent("user.role_changed", u.ID, actor.Username, map[string]string{"role": role}))
	return u, nil
}

// EnsureAdmin creates the bootstrap administrator or promotes an existing
// account. It never changes the password of an existing account.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "account.ensure_admin", "username", username)

	u, err := s.Repo.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := validPassword(password); err != nil {
			return err
		}
		pwHash, err := hash.HashPassword(password)
		if err != nil {
			return err
		}
		u = &models.User{Username: username, PasswordHash: pwHash, Role: models.RoleAdmin}
		if err := s.Repo.CreateUserIfNotExists(ctx, u); err != nil {
			return err
		}
		l.Info("bootstrap_admin_created")
		return nil
	case err != nil:
		return err
	}

	if u.Role == models.RoleAdmin && !u.Deleted {
		return nil
	}
	u.Role = models.RoleAdmin
	u.Deleted = false
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return err
	}
	l.Info("bootstrap_admin_promoted")
	return nil
}
