package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/ptrdsh/participatory-budgeting/src/api/cardano"
	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSubmitter struct{}

func (failingSubmitter) Submit(context.Context, []byte) (string, error) {
	return "", errors.New("node unreachable")
}

func TestCastVote(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	cat := seedCategory(t, db, "Infrastructure")
	item := seedItem(t, db, cat.ID, 200)
	user := seedDRep(t, db, "alice")

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	receipt, err := svc.Cast(context.Background(), user.ID, item.ID, 150)
	require.NoError(t, err)
	assert.Len(t, receipt, 64)

	var vote types.BudgetVote
	require.NoError(t, db.First(&vote, "user_id = ? AND budget_item_id = ?", user.ID, item.ID).Error)
	assert.Equal(t, int64(150), vote.Amount)
	assert.Equal(t, receipt, vote.TransactionHash)

	var updated types.BudgetItem
	require.NoError(t, db.First(&updated, item.ID).Error)
	assert.Equal(t, int64(150), updated.CurrentMedianVote)
	assert.Equal(t, int64(7500), updated.PercentageOfSuggested)

	var stats types.Statistics
	require.NoError(t, db.First(&stats, "budget_period_id = ?", 1).Error)
	assert.Equal(t, int64(1), stats.ActiveDreps)
	assert.Equal(t, int64(150), stats.TotalAllocated)
}

func TestCastVoteUpsert(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	cat := seedCategory(t, db, "Infrastructure")
	item := seedItem(t, db, cat.ID, 200)
	user := seedDRep(t, db, "alice")

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	first, err := svc.Cast(context.Background(), user.ID, item.ID, 100)
	require.NoError(t, err)
	second, err := svc.Cast(context.Background(), user.ID, item.ID, 60)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	var count int64
	require.NoError(t, db.Model(&types.BudgetVote{}).
		Where("user_id = ? AND budget_item_id = ?", user.ID, item.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var vote types.BudgetVote
	require.NoError(t, db.First(&vote, "user_id = ? AND budget_item_id = ?", user.ID, item.ID).Error)
	assert.Equal(t, int64(60), vote.Amount)
	assert.Equal(t, second, vote.TransactionHash)

	// Consensus reflects only the latest amount from this voter.
	var updated types.BudgetItem
	require.NoError(t, db.First(&updated, item.ID).Error)
	assert.Equal(t, int64(60), updated.CurrentMedianVote)
}

func TestCastVoteUnknownItem(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	user := seedDRep(t, db, "alice")

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	_, err := svc.Cast(context.Background(), user.ID, 999, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCastVoteNonDRep(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	cat := seedCategory(t, db, "Infrastructure")
	item := seedItem(t, db, cat.ID, 200)

	user := types.User{Username: "bystander", IsDRep: false}
	require.NoError(t, db.Create(&user).Error)

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	_, err := svc.Cast(context.Background(), user.ID, item.ID, 100)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCastVoteZeroMajorityBlocksFunding(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	cat := seedCategory(t, db, "Infrastructure")
	item := seedItem(t, db, cat.ID, 200)

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	ctx := context.Background()

	// Zero votes always go through; they are the evidence the guard uses.
	for _, name := range []string{"a", "b", "c"} {
		u := seedDRep(t, db, name)
		_, err := svc.Cast(ctx, u.ID, item.ID, 0)
		require.NoError(t, err)
	}
	funder := seedDRep(t, db, "funder")
	_, err := svc.Cast(ctx, funder.ID, item.ID, 5)
	require.ErrorIs(t, err, ErrInvalidVote)

	// The rejected vote must not have touched the store.
	var count int64
	require.NoError(t, db.Model(&types.BudgetVote{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestCastVoteUpstreamFailureWritesNothing(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	cat := seedCategory(t, db, "Infrastructure")
	item := seedItem(t, db, cat.ID, 200)
	user := seedDRep(t, db, "alice")

	svc := NewVotingService(db, nil, failingSubmitter{})
	_, err := svc.Cast(context.Background(), user.ID, item.ID, 100)
	require.ErrorIs(t, err, ErrUpstream)

	var count int64
	require.NoError(t, db.Model(&types.BudgetVote{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCastBulkSharedReceipt(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	cat := seedCategory(t, db, "Infrastructure")
	item1 := seedItem(t, db, cat.ID, 200)
	item2 := seedItem(t, db, cat.ID, 300)
	user := seedDRep(t, db, "alice")

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	receipt, err := svc.CastBulk(context.Background(), user.ID, []VoteEntry{
		{BudgetItemID: item1.ID, Amount: 100},
		{BudgetItemID: item2.ID, Amount: 250},
	})
	require.NoError(t, err)

	var votes []types.BudgetVote
	require.NoError(t, db.Find(&votes).Error)
	require.Len(t, votes, 2)
	for _, v := range votes {
		assert.Equal(t, receipt, v.TransactionHash)
	}

	var stats types.Statistics
	require.NoError(t, db.First(&stats, "budget_period_id = ?", 1).Error)
	assert.Equal(t, int64(350), stats.TotalAllocated)
}

func TestCastBulkAtomicity(t *testing.T) {
	db := openTestDB(t)
	seedActivePeriod(t, db, 1000)
	cat := seedCategory(t, db, "Infrastructure")
	item1 := seedItem(t, db, cat.ID, 200)
	item2 := seedItem(t, db, cat.ID, 300)
	user := seedDRep(t, db, "alice")

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	_, err := svc.CastBulk(context.Background(), user.ID, []VoteEntry{
		{BudgetItemID: item1.ID, Amount: 100},
		{BudgetItemID: item2.ID, Amount: 250},
		{BudgetItemID: 999, Amount: 50},
	})
	require.ErrorIs(t, err, ErrNotFound)

	// No partial application: the earlier entries must not be visible.
	var count int64
	require.NoError(t, db.Model(&types.BudgetVote{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var updated types.BudgetItem
	require.NoError(t, db.First(&updated, item1.ID).Error)
	assert.Equal(t, int64(0), updated.CurrentMedianVote)
}

func TestCastBulkEmpty(t *testing.T) {
	db := openTestDB(t)
	user := seedDRep(t, db, "alice")

	svc := NewVotingService(db, nil, cardano.MockSubmitter{})
	_, err := svc.CastBulk(context.Background(), user.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidVote)
}
