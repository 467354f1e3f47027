package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"gorm.io/gorm"
)

// ActivePeriod returns the single period with active = true.
func ActivePeriod(db *gorm.DB) (*types.BudgetPeriod, error) {
	var period types.BudgetPeriod
	if err := db.First(&period, "active = ?", true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActivePeriod
		}
		return nil, err
	}
	return &period, nil
}

// ActivatePeriod makes the target period the only active one. The
// deactivate-then-activate pair runs in one transaction so the at most
// one active period invariant holds even if callers race.
func ActivatePeriod(db *gorm.DB, periodID uint64) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var period types.BudgetPeriod
		if err := tx.First(&period, periodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("budget period %d: %w", periodID, ErrNotFound)
			}
			return err
		}
		if err := tx.Model(&types.BudgetPeriod{}).
			Where("id <> ?", periodID).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&period).Update("active", true).Error
	})
}

// VotingEnded reports whether the period's voting window has closed.
func VotingEnded(period *types.BudgetPeriod, now time.Time) bool {
	return now.After(period.EndDate)
}

type Countdown struct {
	Days      int64 `json:"days"`
	Hours     int64 `json:"hours"`
	Minutes   int64 `json:"minutes"`
	Seconds   int64 `json:"seconds"`
	IsExpired bool  `json:"isExpired"`
}

// TimeRemaining decomposes the time left until the period's end date into
// whole days, hours, minutes and seconds.
func TimeRemaining(period *types.BudgetPeriod, now time.Time) Countdown {
	diff := period.EndDate.Sub(now)
	if diff <= 0 {
		return Countdown{IsExpired: true}
	}

	secs := int64(diff / time.Second)
	return Countdown{
		Days:    secs / 86400,
		Hours:   (secs % 86400) / 3600,
		Minutes: (secs % 3600) / 60,
		Seconds: secs % 60,
	}
}
