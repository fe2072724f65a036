package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/models"
)

// CreateReport stores one report per reporter and target and bumps the
// target's report_count.
func (r *GormRepo) CreateReport(ctx context.Context, rep *models.Report) error {
	table, err := tableFor(rep.TargetType)
	if err != nil {
		return err
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, table, rep.TargetID); err != nil {
			return err
		}

		var count int64
		err := tx.Model(&models.Report{}).
			Where("reporter_id = ? AND target_type = ? AND target_id = ?", rep.ReporterID, rep.TargetType, rep.TargetID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyReported
		}

		if err := tx.Omit("Reporter").Create(rep).Error; err != nil {
			return err
		}
		return tx.Table(table).Where("id = ?", rep.TargetID).
			Update("report_count", gorm.Expr("report_count + ?", 1)).Error
	})
}

// ReportsFor groups the reports on the given targets by target id.
func (r *GormRepo) ReportsFor(ctx context.Context, targetType string, ids []uint) (map[uint][]models.Report, error) {
	out := make(map[uint][]models.Report, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var items []models.Report
	err := r.DB.WithContext(ctx).
		Preload("Reporter").
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, rep := range items {
		out[rep.TargetID] = append(out[rep.TargetID], rep)
	}
	return out, nil
}
