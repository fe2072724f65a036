package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/logging"
	"github.com/Skotchmaster/scriptorium/internal/models"
	"github.com/Skotchmaster/scriptorium/internal/mykafka"
	"github.com/Skotchmaster/scriptorium/internal/repo"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrHidden             = errors.New("content hidden by moderator")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
)

const (
	maxTitleLen  = 200
	maxReasonLen = 500
	maxTags      = 10
)

// Actor is the authenticated caller as seen by services. Admin comes from
// the token role.
type Actor struct {
	Username string
	Admin    bool
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// activeUser loads the acting account; deleted accounts are reported as
// missing even though their tokens still pass the guard.
func activeUser(ctx context.Context, r *repo.GormRepo, username string) (*models.User, error) {
	u, err := r.GetUserByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Deleted {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// viewerFor resolves an optional actor into listing visibility.
func viewerFor(ctx context.Context, r *repo.GormRepo, a *Actor) (repo.Viewer, error) {
	if a == nil {
		return repo.Viewer{}, nil
	}
	v := repo.Viewer{Admin: a.Admin}
	u, err := activeUser(ctx, r, a.Username)
	switch {
	case err == nil:
		v.UserID = u.ID
	case !errors.Is(err, ErrUserNotFound):
		return repo.Viewer{}, err
	}
	return v, nil
}

func canSee(v repo.Viewer, authorID uint, hidden bool) bool {
	return !hidden || v.Admin || (v.UserID != 0 && v.UserID == authorID)
}

func publish(ctx context.Context, events EventPublisher, topic string, ev mykafka.Event) {
	if events == nil {
		return
	}
	if err := events.PublishEvent(ctx, topic, fmt.Sprint(ev.ID), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", ev.Type, "error", err)
	}
}

func requireText(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", invalid("%s is required", field)
	}
	if max > 0 && utf8.RuneCountInString(v) > max {
		return "", invalid("%s is longer than %d characters", field, max)
	}
	return v, nil
}

func checkTags(tags []string) error {
	if len(tags) > maxTags {
		return invalid("at most %d tags allowed", maxTags)
	}
	return nil
}
