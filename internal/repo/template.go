package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/models"
)

type TemplateFilter struct {
	Query    string
	Tag      string
	AuthorID uint
}

func (r *GormRepo) CreateTemplate(ctx context.Context, t *models.Template, tags []string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := ensureTags(tx, tags)
		if err != nil {
			return err
		}
		t.Tags = found
		return tx.Omit("Author").Create(t).Error
	})
}

func (r *GormRepo) GetTemplate(ctx context.Context, id uint) (*models.Template, error) {
	var t models.Template
	err := r.DB.WithContext(ctx).
		Preload("Tags").
		Preload("Author").
		Where("id = ? AND deleted = ?", id, false).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTemplate saves scalar fields; tags are replaced only when non-nil.
func (r *GormRepo) UpdateTemplate(ctx context.Context, t *models.Template, tags *[]string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(t).Select("title", "explanation", "code", "language").Updates(t).Error; err != nil {
			return err
		}
		if tags == nil {
			return nil
		}
		found, err := ensureTags(tx, *tags)
		if err != nil {
			return err
		}
		if err := tx.Model(t).Association("Tags").Replace(found); err != nil {
			return err
		}
		t.Tags = found
		return nil
	})
}

func (r *GormRepo) DeleteTemplate(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Template{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListTemplates(ctx context.Context, f TemplateFilter, offset, limit int) (int64, []models.Template, error) {
	q := r.DB.WithContext(ctx).Model(&models.Template{}).Where("deleted = ?", false)
	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(explanation) LIKE ? OR LOWER(code) LIKE ?", p, p, p)
	}
	if f.Tag != "" {
		q = q.Where("id IN (?)", r.DB.Table("template_tags").
			Select("template_tags.template_id").
			Joins("JOIN tags ON tags.id = template_tags.tag_id").
			Where("tags.name = ?", normalizeTag(f.Tag)))
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Template
	err := q.Preload("Tags").Preload("Author").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// TemplatesByIDs returns the live templates among ids.
func (r *GormRepo) TemplatesByIDs(ctx context.Context, ids []uint) ([]models.Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Template
	err := r.DB.WithContext(ctx).
		Preload("Tags").
		Preload("Author").
		Where("id IN ? AND deleted = ?", ids, false).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
