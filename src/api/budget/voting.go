package budget

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ptrdsh/participatory-budgeting/src/api/cardano"
	"github.com/ptrdsh/participatory-budgeting/src/api/data"
	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type VoteEntry struct {
	BudgetItemID uint64 `json:"budgetItemId" binding:"required"`
	Amount       int64  `json:"amount" binding:"min=0"`
}

// VotingService orchestrates vote casting: eligibility, threshold check,
// receipt, upsert, aggregator refresh, statistics refresh. The write path
// for a given item is a critical section guarded by a per-item mutex so
// the aggregator never reads a half-applied vote set.
type VotingService struct {
	db        *gorm.DB
	rdb       *redis.Client // optional, vote events are published when set
	submitter cardano.TxSubmitter
	locks     sync.Map // item id -> *sync.Mutex
}

func NewVotingService(db *gorm.DB, rdb *redis.Client, submitter cardano.TxSubmitter) *VotingService {
	return &VotingService{db: db, rdb: rdb, submitter: submitter}
}

func (s *VotingService) itemLock(itemID uint64) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(itemID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Cast submits one vote and returns the transaction receipt.
func (s *VotingService) Cast(ctx context.Context, userID, budgetItemID uint64, amount int64) (string, error) {
	var item types.BudgetItem
	if err := s.db.First(&item, budgetItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("budget item %d: %w", budgetItemID, ErrNotFound)
		}
		return "", err
	}

	if err := s.requireDRep(userID); err != nil {
		return "", err
	}
	if err := s.validateAmount(budgetItemID, amount); err != nil {
		return "", err
	}

	// Receipt comes first: no vote may be stored without one.
	payload := cardano.EncodeVotePayload(budgetItemID, amount, time.Now())
	receipt, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	mu := s.itemLock(budgetItemID)
	mu.Lock()
	defer mu.Unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertVote(tx, userID, budgetItemID, amount, receipt); err != nil {
			return err
		}
		if err := RefreshItemConsensus(tx, budgetItemID); err != nil {
			return err
		}
		_, err := RefreshActiveStatistics(tx)
		return err
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, userID, budgetItemID, amount, receipt)
	return receipt, nil
}

// CastBulk applies a batch of votes under one shared receipt. Entries are
// validated against the pre-batch state before anything is written, then
// applied inside a single transaction, so the batch is all-or-nothing.
func (s *VotingService) CastBulk(ctx context.Context, userID uint64, entries []VoteEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: empty batch", ErrInvalidVote)
	}

	if err := s.requireDRep(userID); err != nil {
		return "", err
	}

	refs := make([]cardano.VoteRef, 0, len(entries))
	for _, e := range entries {
		var item types.BudgetItem
		if err := s.db.First(&item, e.BudgetItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", fmt.Errorf("budget item %d: %w", e.BudgetItemID, ErrNotFound)
			}
			return "", err
		}
		if err := s.validateAmount(e.BudgetItemID, e.Amount); err != nil {
			return "", err
		}
		refs = append(refs, cardano.VoteRef{ItemID: e.BudgetItemID, Amount: e.Amount})
	}

	// One logical transaction on chain: one receipt for the whole batch.
	payload := cardano.EncodeBulkVotePayload(refs, time.Now())
	receipt, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	for _, mu := range s.orderedLocks(entries) {
		mu.Lock()
		defer mu.Unlock()
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := upsertVote(tx, userID, e.BudgetItemID, e.Amount, receipt); err != nil {
				return err
			}
			if err := RefreshItemConsensus(tx, e.BudgetItemID); err != nil {
				return err
			}
		}
		_, err := RefreshActiveStatistics(tx)
		return err
	})
	if err != nil {
		return "", err
	}

	for _, e := range entries {
		s.publish(ctx, userID, e.BudgetItemID, e.Amount, receipt)
	}
	return receipt, nil
}

// UserVotes lists every vote a user has cast.
func (s *VotingService) UserVotes(userID uint64) ([]types.BudgetVote, error) {
	var votes []types.BudgetVote
	if err := s.db.Find(&votes, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (s *VotingService) requireDRep(userID uint64) error {
	var user types.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return err
	}
	if !user.IsDRep {
		return ErrForbidden
	}
	return nil
}

// validateAmount runs the threshold guard. Zero votes bypass it: an
// explicit "do not fund" is always admissible.
func (s *VotingService) validateAmount(budgetItemID uint64, amount int64) error {
	if amount == 0 {
		return nil
	}
	existing, err := voteAmounts(s.db, budgetItemID)
	if err != nil {
		return err
	}
	if !AmountAdmissible(existing, amount) {
		return fmt.Errorf("budget item %d: %w", budgetItemID, ErrInvalidVote)
	}
	return nil
}

// orderedLocks returns the per-item locks for a batch, deduplicated and
// in ascending item order so concurrent batches cannot deadlock.
func (s *VotingService) orderedLocks(entries []VoteEntry) []*sync.Mutex {
	ids := make([]uint64, 0, len(entries))
	seen := make(map[uint64]bool, len(entries))
	for _, e := range entries {
		if !seen[e.BudgetItemID] {
			seen[e.BudgetItemID] = true
			ids = append(ids, e.BudgetItemID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locks := make([]*sync.Mutex, len(ids))
	for i, id := range ids {
		locks[i] = s.itemLock(id)
	}
	return locks
}

func (s *VotingService) publish(ctx context.Context, userID, budgetItemID uint64, amount int64, receipt string) {
	if s.rdb == nil {
		return
	}
	err := data.PublishVote(ctx, s.rdb, map[string]interface{}{
		"userId": userID,
		"itemId": budgetItemID,
		"amount": amount,
		"txHash": receipt,
	})
	if err != nil {
		log.Printf("publish vote event: %v", err)
	}
}

func upsertVote(tx *gorm.DB, userID, budgetItemID uint64, amount int64, receipt string) error {
	var existing types.BudgetVote
	err := tx.First(&existing, "user_id = ? AND budget_item_id = ?", userID, budgetItemID).Error
	switch {
	case err == nil:
		return tx.Model(&existing).Updates(map[string]interface{}{
			"amount":           amount,
			"transaction_hash": receipt,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Create(&types.BudgetVote{
			UserID:          userID,
			BudgetItemID:    budgetItemID,
			Amount:          amount,
			TransactionHash: receipt,
		}).Error
	default:
		return err
	}
}

// RefreshItemConsensus recomputes a budget item's derived fields from its
// full vote set. This is the only path that writes them.
func RefreshItemConsensus(tx *gorm.DB, budgetItemID uint64) error {
	var item types.BudgetItem
	if err := tx.First(&item, budgetItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("budget item %d: %w", budgetItemID, ErrNotFound)
		}
		return err
	}

	amounts, err := voteAmounts(tx, budgetItemID)
	if err != nil {
		return err
	}

	consensus, pct := ComputeConsensus(amounts, item.SuggestedAmount)
	return tx.Model(&item).Updates(map[string]interface{}{
		"current_median_vote":     consensus,
		"percentage_of_suggested": pct,
	}).Error
}

func voteAmounts(tx *gorm.DB, budgetItemID uint64) ([]int64, error) {
	var amounts []int64
	err := tx.Model(&types.BudgetVote{}).
		Where("budget_item_id = ?", budgetItemID).
		Pluck("amount", &amounts).Error
	return amounts, err
}
