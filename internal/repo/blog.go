package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/models"
)

type BlogFilter struct {
	Query      string
	Tag        string
	TemplateID uint
	AuthorID   uint
	Sort       string
	Viewer     Viewer
}

func (r *GormRepo) CreateBlog(ctx context.Context, b *models.BlogPost, tags []string, templateIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := ensureTags(tx, tags)
		if err != nil {
			return err
		}
		b.Tags = found

		tpls, err := liveTemplates(tx, templateIDs)
		if err != nil {
			return err
		}
		b.Templates = tpls

		return tx.Omit("Author", "Templates.*").Create(b).Error
	})
}

func liveTemplates(tx *gorm.DB, ids []uint) ([]models.Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Template
	if err := tx.Where("id IN ? AND deleted = ?", ids, false).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) != len(uniqueIDs(ids)) {
		return nil, gorm.ErrRecordNotFound
	}
	return items, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GetBlog loads a live post regardless of the hidden flag; callers apply
// visibility.
func (r *GormRepo) GetBlog(ctx context.Context, id uint) (*models.BlogPost, error) {
	var b models.BlogPost
	err := r.DB.WithContext(ctx).
		Preload("Tags").
		Preload("Templates", "deleted = ?", false).
		Preload("Author").
		Where("id = ? AND deleted = ?", id, false).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepo) UpdateBlog(ctx context.Context, b *models.BlogPost, tags *[]string, templateIDs *[]uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(b).Select("title", "description", "content").Updates(b).Error; err != nil {
			return err
		}
		if tags != nil {
			found, err := ensureTags(tx, *tags)
			if err != nil {
				return err
			}
			if err := tx.Model(b).Association("Tags").Replace(found); err != nil {
				return err
			}
			b.Tags = found
		}
		if templateIDs != nil {
			tpls, err := liveTemplates(tx, *templateIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(b).Omit("Templates.*").Association("Templates").Replace(tpls); err != nil {
				return err
			}
			b.Templates = tpls
		}
		return nil
	})
}

func (r *GormRepo) DeleteBlog(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.BlogPost{}).
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

func (r *GormRepo) SetBlogHidden(ctx context.Context, id uint, hidden bool) error {
	res := r.DB.WithContext(ctx).Model(&models.BlogPost{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("hidden", hidden)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListBlogs(ctx context.Context, f BlogFilter, offset, limit int) (int64, []models.BlogPost, error) {
	q := r.DB.WithContext(ctx).Model(&models.BlogPost{}).Where("deleted = ?", false)
	q = f.Viewer.scope(q)
	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(content) LIKE ?", p, p, p)
	}
	if f.Tag != "" {
		q = q.Where("id IN (?)", r.DB.Table("blog_post_tags").
			Select("blog_post_tags.blog_post_id").
			Joins("JOIN tags ON tags.id = blog_post_tags.tag_id").
			Where("tags.name = ?", normalizeTag(f.Tag)))
	}
	if f.TemplateID != 0 {
		q = q.Where("id IN (?)", r.DB.Table("blog_post_templates").
			Select("blog_post_id").
			Where("template_id = ?", f.TemplateID))
	}
	if f.AuthorID != 0 {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.BlogPost
	err := orderBy(q, f.Sort).
		Preload("Tags").
		Preload("Author").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ListReportedBlogs returns live posts with at least one report, most
// reported first.
func (r *GormRepo) ListReportedBlogs(ctx context.Context, offset, limit int) (int64, []models.BlogPost, error) {
	q := r.DB.WithContext(ctx).Model(&models.BlogPost{}).
		Where("deleted = ? AND report_count > ?", false, 0).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.BlogPost
	err := q.Preload("Author").
		Order("report_count DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// BlogsByIDs returns the live posts among ids that v may see, in no
// particular order.
func (r *GormRepo) BlogsByIDs(ctx context.Context, ids []uint, v Viewer) ([]models.BlogPost, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.BlogPost
	q := r.DB.WithContext(ctx).Where("id IN ? AND deleted = ?", ids, false)
	err := v.scope(q).
		Preload("Tags").
		Preload("Author").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
