package budget

import (
	"testing"
	"time"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivatePeriodExclusivity(t *testing.T) {
	db := openTestDB(t)
	a := seedActivePeriod(t, db, 1000)
	b := types.BudgetPeriod{Title: "Next round", TotalBudget: 2000,
		StartDate: time.Now(), EndDate: time.Now().Add(48 * time.Hour)}
	require.NoError(t, db.Create(&b).Error)

	require.NoError(t, ActivatePeriod(db, b.ID))

	var active []types.BudgetPeriod
	require.NoError(t, db.Find(&active, "active = ?", true).Error)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	var old types.BudgetPeriod
	require.NoError(t, db.First(&old, a.ID).Error)
	assert.False(t, old.Active)
}

func TestActivatePeriodUnknown(t *testing.T) {
	db := openTestDB(t)
	assert.ErrorIs(t, ActivatePeriod(db, 7), ErrNotFound)
}

func TestActivePeriodNone(t *testing.T) {
	db := openTestDB(t)
	_, err := ActivePeriod(db)
	assert.ErrorIs(t, err, ErrNoActivePeriod)
}

func TestVotingEnded(t *testing.T) {
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	period := &types.BudgetPeriod{EndDate: end}

	assert.False(t, VotingEnded(period, end.Add(-time.Second)))
	assert.False(t, VotingEnded(period, end))
	assert.True(t, VotingEnded(period, end.Add(time.Second)))
}

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	period := &types.BudgetPeriod{
		EndDate: now.Add(24*time.Hour + 2*time.Hour + 3*time.Minute + 4*time.Second),
	}

	cd := TimeRemaining(period, now)
	assert.Equal(t, Countdown{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}, cd)
}

func TestTimeRemainingExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	period := &types.BudgetPeriod{EndDate: now.Add(-time.Hour)}

	cd := TimeRemaining(period, now)
	assert.Equal(t, Countdown{IsExpired: true}, cd)

	// endDate == now counts as expired.
	cd = TimeRemaining(&types.BudgetPeriod{EndDate: now}, now)
	assert.True(t, cd.IsExpired)
}
