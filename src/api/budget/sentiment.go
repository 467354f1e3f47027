package budget

import (
	"errors"
	"fmt"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"gorm.io/gorm"
)

// SubmitSentiment records a user's emoji reaction to a budget item,
// replacing any previous reaction. The denormalized per-(item, sentiment)
// counters move inside the same transaction as the reaction row so they
// always match the underlying set.
func SubmitSentiment(db *gorm.DB, userID, budgetItemID uint64, sentiment string) (*types.BudgetSentiment, error) {
	if sentiment == "" {
		return nil, fmt.Errorf("%w: empty sentiment", ErrInvalidVote)
	}

	var item types.BudgetItem
	if err := db.First(&item, budgetItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("budget item %d: %w", budgetItemID, ErrNotFound)
		}
		return nil, err
	}

	var result *types.BudgetSentiment
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing types.BudgetSentiment
		err := tx.First(&existing, "user_id = ? AND budget_item_id = ?", userID, budgetItemID).Error
		switch {
		case err == nil:
			if existing.Sentiment == sentiment {
				result = &existing
				return nil
			}
			if err := adjustSentimentCount(tx, budgetItemID, existing.Sentiment, -1); err != nil {
				return err
			}
			if err := tx.Model(&existing).Update("sentiment", sentiment).Error; err != nil {
				return err
			}
			if err := adjustSentimentCount(tx, budgetItemID, sentiment, +1); err != nil {
				return err
			}
			result = &existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := types.BudgetSentiment{
				UserID:       userID,
				BudgetItemID: budgetItemID,
				Sentiment:    sentiment,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			if err := adjustSentimentCount(tx, budgetItemID, sentiment, +1); err != nil {
				return err
			}
			result = &created
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ItemSentiments returns the counters for one budget item.
func ItemSentiments(db *gorm.DB, budgetItemID uint64) ([]types.BudgetSentimentStat, error) {
	var stats []types.BudgetSentimentStat
	err := db.Find(&stats, "budget_item_id = ?", budgetItemID).Error
	return stats, err
}

// UserSentiment returns a user's reaction to an item, nil when none.
func UserSentiment(db *gorm.DB, userID, budgetItemID uint64) (*types.BudgetSentiment, error) {
	var s types.BudgetSentiment
	err := db.First(&s, "user_id = ? AND budget_item_id = ?", userID, budgetItemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func adjustSentimentCount(tx *gorm.DB, budgetItemID uint64, sentiment string, delta int64) error {
	var stat types.BudgetSentimentStat
	err := tx.First(&stat, "budget_item_id = ? AND sentiment = ?", budgetItemID, sentiment).Error
	switch {
	case err == nil:
		count := stat.Count + delta
		if count < 0 {
			count = 0
		}
		return tx.Model(&stat).Update("count", count).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if delta <= 0 {
			return nil
		}
		return tx.Create(&types.BudgetSentimentStat{
			BudgetItemID: budgetItemID,
			Sentiment:    sentiment,
			Count:        delta,
		}).Error
	default:
		return err
	}
}
