package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/scriptorium/internal/models"
)

type Tally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

func voteDelta(prev, next int) (up, down int) {
	switch prev {
	case 1:
		up--
	case -1:
		down--
	}
	switch next {
	case 1:
		up++
	case -1:
		down++
	}
	return up, down
}

// Vote records value (1, -1 or 0 to clear) for the user on the target and
// keeps the target's counters in step inside one transaction.
func (r *GormRepo) Vote(ctx context.Context, userID uint, targetType string, targetID uint, value int) (*Tally, error) {
	table, err := tableFor(targetType)
	if err != nil {
		return nil, err
	}

	var tally Tally
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, table, targetID); err != nil {
			return err
		}

		var existing models.Interaction
		prev := 0
		err := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			First(&existing).Error
		switch {
		case err == nil:
			prev = existing.Value
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if prev != value {
			switch {
			case value == 0:
				err = tx.Delete(&existing).Error
			case prev == 0:
				err = tx.Create(&models.Interaction{
					UserID:     userID,
					TargetType: targetType,
					TargetID:   targetID,
					Value:      value,
				}).Error
			default:
				err = tx.Model(&existing).Update("value", value).Error
			}
			if err != nil {
				return err
			}

			up, down := voteDelta(prev, value)
			err = tx.Table(table).Where("id = ?", targetID).Updates(map[string]any{
				"upvotes":   gorm.Expr("upvotes + ?", up),
				"downvotes": gorm.Expr("downvotes + ?", down),
			}).Error
			if err != nil {
				return err
			}
		}

		return tx.Table(table).Select("upvotes", "downvotes").Where("id = ?", targetID).Scan(&tally).Error
	})
	if err != nil {
		return nil, err
	}
	return &tally, nil
}

// UserVote returns the caller's current vote on the target, 0 when none.
func (r *GormRepo) UserVote(ctx context.Context, userID uint, targetType string, targetID uint) (int, error) {
	var it models.Interaction
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return it.Value, nil
}
