package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/models"
)

type CommentFilter struct {
	BlogPostID uint
	Sort       string
	Viewer     Viewer
}

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return r.DB.WithContext(ctx).Omit("Author").Create(c).Error
}

func (r *GormRepo) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND deleted = ?", id, false).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) DeleteComment(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Comment{}).
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

func (r *GormRepo) SetCommentHidden(ctx context.Context, id uint, hidden bool) error {
	res := r.DB.WithContext(ctx).Model(&models.Comment{}).
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

func (r *GormRepo) ListComments(ctx context.Context, f CommentFilter, offset, limit int) (int64, []models.Comment, error) {
	q := r.DB.WithContext(ctx).Model(&models.Comment{}).
		Where("blog_post_id = ? AND deleted = ?", f.BlogPostID, false)
	q = f.Viewer.scope(q).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Comment
	err := orderBy(q, f.Sort).
		Preload("Author").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListReportedComments(ctx context.Context, offset, limit int) (int64, []models.Comment, error) {
	q := r.DB.WithContext(ctx).Model(&models.Comment{}).
		Where("deleted = ? AND report_count > ?", false, 0).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Comment
	err := q.Preload("Author").
		Order("report_count DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
