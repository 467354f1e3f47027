package budget

import (
	"fmt"
	"testing"
	"time"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Per-test in-memory database to avoid cross-test interference.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.User{}, &types.BudgetPeriod{}, &types.BudgetCategory{},
		&types.BudgetItem{}, &types.BudgetVote{}, &types.Statistics{},
		&types.BudgetSentiment{}, &types.BudgetSentimentStat{},
		&types.Setting{},
	))
	return db
}

func seedDRep(t *testing.T, db *gorm.DB, username string) types.User {
	t.Helper()
	user := types.User{Username: username, IsDRep: true, VotingPower: 150}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedItem(t *testing.T, db *gorm.DB, categoryID uint64, suggested int64) types.BudgetItem {
	t.Helper()
	item := types.BudgetItem{
		Title:           "Core infrastructure",
		CategoryID:      categoryID,
		SuggestedAmount: suggested,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedActivePeriod(t *testing.T, db *gorm.DB, totalBudget int64) types.BudgetPeriod {
	t.Helper()
	period := types.BudgetPeriod{
		Title:       "2025 Treasury Round",
		TotalBudget: totalBudget,
		StartDate:   time.Now().Add(-24 * time.Hour),
		EndDate:     time.Now().Add(24 * time.Hour),
		Active:      true,
	}
	require.NoError(t, db.Create(&period).Error)
	return period
}

func seedCategory(t *testing.T, db *gorm.DB, name string) types.BudgetCategory {
	t.Helper()
	cat := types.BudgetCategory{Name: name, Color: "#4570EA"}
	require.NoError(t, db.Create(&cat).Error)
	return cat
}
