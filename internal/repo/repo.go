package repo

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/models"
)

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrAlreadyReported  = errors.New("already reported")
	ErrUnknownTarget    = errors.New("unknown target type")
)

const (
	SortRecent = "recent"
	SortRating = "rating"
)

type GormRepo struct {
	DB *gorm.DB
}

// Viewer decides which hidden rows a listing may include: admins see all,
// authors see their own.
type Viewer struct {
	UserID uint
	Admin  bool
}

func (v Viewer) scope(db *gorm.DB) *gorm.DB {
	if v.Admin {
		return db
	}
	return db.Where("hidden = ? OR author_id = ?", false, v.UserID)
}

func tableFor(targetType string) (string, error) {
	switch targetType {
	case models.TargetBlog:
		return "blog_posts", nil
	case models.TargetComment:
		return "comments", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, targetType)
	}
}

func orderBy(db *gorm.DB, sort string) *gorm.DB {
	if sort == SortRating {
		return db.Order("(upvotes - downvotes) DESC").Order("id DESC")
	}
	return db.Order("created_at DESC").Order("id DESC")
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = normalizeTag(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func ensureTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	names = normalizeTags(names)
	tags := make([]models.Tag, 0, len(names))
	for _, n := range names {
		tag := models.Tag{Name: n}
		if err := tx.Where("name = ?", n).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func targetExists(tx *gorm.DB, table string, id uint) error {
	var count int64
	if err := tx.Table(table).Where("id = ? AND deleted = ?", id, false).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
