package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Users / DReps
type User struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:64;unique;not null" json:"username"`
	StakeAddress  string    `gorm:"size:128;index" json:"stakeAddress"`
	WalletAddress string    `gorm:"size:128;index" json:"walletAddress"`
	IsDRep        bool      `gorm:"column:is_drep;default:false" json:"isDRep"`
	VotingPower   int64     `gorm:"default:0" json:"votingPower"` // percentage * 100
	IsAdmin       bool      `gorm:"default:false" json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Budget voting periods
type BudgetPeriod struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	TotalBudget      int64     `gorm:"not null" json:"totalBudget"` // lovelace
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	GovernanceAction string    `gorm:"size:255" json:"governanceAction"`
	Active           bool      `gorm:"default:false;index" json:"active"`
}

// Budget item categories
type BudgetCategory struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Color       string `gorm:"size:16;not null;default:'#4570EA'" json:"color"`
}

// Budget items. CurrentMedianVote and PercentageOfSuggested are derived
// by the aggregator after every vote write and must not be set elsewhere.
type BudgetItem struct {
	ID                    uint64    `gorm:"primaryKey" json:"id"`
	Title                 string    `gorm:"size:255;not null" json:"title"`
	Description           string    `gorm:"type:text" json:"description"`
	CategoryID            uint64    `gorm:"index;not null" json:"categoryId"`
	SuggestedAmount       int64     `gorm:"not null" json:"suggestedAmount"`        // lovelace
	CurrentMedianVote     int64     `gorm:"default:0" json:"currentMedianVote"`     // lovelace
	PercentageOfSuggested int64     `gorm:"default:0" json:"percentageOfSuggested"` // percentage * 100
	CreatedAt             time.Time `json:"createdAt"`
}

// One vote per (user, item); repeat votes update the row in place.
type BudgetVote struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	UserID          uint64    `gorm:"not null;uniqueIndex:idx_vote_user_item" json:"userId"`
	BudgetItemID    uint64    `gorm:"not null;uniqueIndex:idx_vote_user_item;index" json:"budgetItemId"`
	Amount          int64     `gorm:"not null" json:"amount"` // lovelace, 0 = do not fund
	TransactionHash string    `gorm:"size:128" json:"transactionHash"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CategoryDistribution maps a category id (or "uncategorized") to the
// summed consensus amount for that category, stored as JSON.
type CategoryDistribution map[string]int64

func (d CategoryDistribution) Value() (driver.Value, error) {
	if d == nil {
		d = CategoryDistribution{}
	}
	b, err := json.Marshal(d)
	return string(b), err
}

func (d *CategoryDistribution) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = CategoryDistribution{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("cannot scan %T into CategoryDistribution", src)
}

// Period-wide rollup, one row per period, fully derived.
type Statistics struct {
	ID                   uint64               `gorm:"primaryKey" json:"id"`
	BudgetPeriodID       uint64               `gorm:"uniqueIndex;not null" json:"budgetPeriodId"`
	TotalDreps           int64                `gorm:"default:0" json:"totalDreps"`
	ActiveDreps          int64                `gorm:"default:0" json:"activeDreps"`
	TotalAllocated       int64                `gorm:"default:0" json:"totalAllocated"`      // lovelace
	PercentageAllocated  int64                `gorm:"default:0" json:"percentageAllocated"` // percentage * 100
	CategoryDistribution CategoryDistribution `gorm:"type:text" json:"categoryDistribution"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

// Emoji reactions, one per (user, item)
type BudgetSentiment struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	UserID       uint64    `gorm:"not null;uniqueIndex:idx_sentiment_user_item" json:"userId"`
	BudgetItemID uint64    `gorm:"not null;uniqueIndex:idx_sentiment_user_item;index" json:"budgetItemId"`
	Sentiment    string    `gorm:"size:32;not null" json:"sentiment"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Denormalized per-(item, sentiment) counter
type BudgetSentimentStat struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	BudgetItemID uint64    `gorm:"not null;uniqueIndex:idx_stat_item_sentiment;index" json:"budgetItemId"`
	Sentiment    string    `gorm:"size:32;not null;uniqueIndex:idx_stat_item_sentiment" json:"sentiment"`
	Count        int64     `gorm:"not null;default:0" json:"count"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:32;not null" json:"name"`
	Value string `gorm:"size:256;not null" json:"value"`
}
