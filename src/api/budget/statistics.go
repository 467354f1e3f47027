package budget

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"gorm.io/gorm"
)

// UncategorizedKey collects consensus amounts of items whose category no
// longer exists. A dangling category reference degrades into this bucket
// instead of failing the rollup.
const UncategorizedKey = "uncategorized"

// RefreshStatistics rebuilds the rollup row for the given period from the
// current store state. It is idempotent: the single Statistics row per
// period is created on first call and overwritten afterwards.
func RefreshStatistics(db *gorm.DB, periodID uint64) (*types.Statistics, error) {
	var period types.BudgetPeriod
	if err := db.First(&period, periodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("budget period %d: %w", periodID, ErrNotFound)
		}
		return nil, err
	}

	var totalDreps int64
	if err := db.Model(&types.User{}).Where("is_drep = ?", true).Count(&totalDreps).Error; err != nil {
		return nil, err
	}

	// A DRep counts as active once no matter how many items they voted on.
	var activeDreps int64
	if err := db.Model(&types.BudgetVote{}).Distinct("user_id").Count(&activeDreps).Error; err != nil {
		return nil, err
	}

	var items []types.BudgetItem
	if err := db.Find(&items).Error; err != nil {
		return nil, err
	}
	var totalAllocated int64
	for _, item := range items {
		totalAllocated += item.CurrentMedianVote
	}

	var percentageAllocated int64
	if period.TotalBudget > 0 {
		percentageAllocated = int64(math.Round(float64(totalAllocated) / float64(period.TotalBudget) * 10000))
	}

	distribution, err := categoryDistribution(db, items)
	if err != nil {
		return nil, err
	}

	stats := types.Statistics{
		BudgetPeriodID:       periodID,
		TotalDreps:           totalDreps,
		ActiveDreps:          activeDreps,
		TotalAllocated:       totalAllocated,
		PercentageAllocated:  percentageAllocated,
		CategoryDistribution: distribution,
	}

	var existing types.Statistics
	err = db.First(&existing, "budget_period_id = ?", periodID).Error
	switch {
	case err == nil:
		stats.ID = existing.ID
		stats.UpdatedAt = existing.UpdatedAt
		if err := db.Model(&existing).Updates(map[string]interface{}{
			"total_dreps":           stats.TotalDreps,
			"active_dreps":          stats.ActiveDreps,
			"total_allocated":       stats.TotalAllocated,
			"percentage_allocated":  stats.PercentageAllocated,
			"category_distribution": stats.CategoryDistribution,
		}).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&stats).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return &stats, nil
}

// RefreshActiveStatistics refreshes the rollup for the active period.
func RefreshActiveStatistics(db *gorm.DB) (*types.Statistics, error) {
	period, err := ActivePeriod(db)
	if err != nil {
		return nil, err
	}
	return RefreshStatistics(db, period.ID)
}

// categoryDistribution sums consensus amounts per category. Every known
// category appears, zero-valued when none of its items drew votes.
func categoryDistribution(db *gorm.DB, items []types.BudgetItem) (types.CategoryDistribution, error) {
	var categories []types.BudgetCategory
	if err := db.Find(&categories).Error; err != nil {
		return nil, err
	}

	distribution := types.CategoryDistribution{}
	known := make(map[uint64]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		distribution[strconv.FormatUint(c.ID, 10)] = 0
	}

	for _, item := range items {
		key := UncategorizedKey
		if known[item.CategoryID] {
			key = strconv.FormatUint(item.CategoryID, 10)
		}
		distribution[key] += item.CurrentMedianVote
	}

	return distribution, nil
}
