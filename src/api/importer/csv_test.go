package importer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	periodCSV = `title,description,totalBudget,startDate,endDate,governanceAction
2025 Treasury Round,Annual treasury allocation,1000000000,2025-01-01,2025-06-30,info_action
`
	categoriesCSV = `name,description,color
Infrastructure,Core tooling,#112233
Events,Community meetups,
`
	itemsCSV = `title,description,categoryName,suggestedAmount
Node hosting,<script>alert(1)</script>Reliable relays,Infrastructure,500000000
Summit,Yearly summit,Events,200000000
Outreach,Social campaigns,Marketing,100000000
`
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.BudgetPeriod{}, &types.BudgetCategory{},
		&types.BudgetItem{}, &types.Statistics{},
	))
	return db
}

func TestParseCSV(t *testing.T) {
	data, err := ParseCSV(
		strings.NewReader(periodCSV),
		strings.NewReader(categoriesCSV),
		strings.NewReader(itemsCSV),
	)
	require.NoError(t, err)

	assert.Equal(t, "2025 Treasury Round", data.Period.Title)
	assert.Equal(t, int64(1000000000), data.Period.TotalBudget)
	require.Len(t, data.Categories, 2)
	assert.Equal(t, defaultColor, data.Categories[1].Color)
	require.Len(t, data.Items, 3)
	// Markup from the shared sheet is stripped before storage.
	assert.Equal(t, "Reliable relays", data.Items[0].Description)
}

func TestParseCSVMissingPeriod(t *testing.T) {
	_, err := ParseCSV(
		strings.NewReader("title,totalBudget\n"),
		strings.NewReader(categoriesCSV),
		strings.NewReader(itemsCSV),
	)
	assert.Error(t, err)
}

func TestSaveActivatesNewPeriod(t *testing.T) {
	db := openTestDB(t)

	old := types.BudgetPeriod{Title: "Old round", TotalBudget: 1, Active: true}
	require.NoError(t, db.Create(&old).Error)

	data, err := ParseCSV(
		strings.NewReader(periodCSV),
		strings.NewReader(categoriesCSV),
		strings.NewReader(itemsCSV),
	)
	require.NoError(t, err)

	result, err := Save(db, data)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ItemsCount)
	// Two declared categories plus "Marketing" created on demand.
	assert.Equal(t, 3, result.CategoriesCount)

	var active []types.BudgetPeriod
	require.NoError(t, db.Find(&active, "active = ?", true).Error)
	require.Len(t, active, 1)
	assert.Equal(t, result.PeriodID, active[0].ID)

	// The fresh period starts with an empty statistics row.
	var stats types.Statistics
	require.NoError(t, db.First(&stats, "budget_period_id = ?", result.PeriodID).Error)
	assert.Equal(t, int64(0), stats.TotalAllocated)
}
