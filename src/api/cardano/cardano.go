// Package cardano stands in for wallet connectivity and on-chain
// submission. The voting core only sees the TxSubmitter interface, so it
// stays testable without a node or Blockfrost credentials.
package cardano

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// TxSubmitter submits an opaque payload to the ledger and returns the
// transaction hash. Every vote needs a receipt even without a real chain
// behind it.
type TxSubmitter interface {
	Submit(ctx context.Context, payload []byte) (string, error)
}

type votePayload struct {
	Type      string `json:"type"`
	ItemID    uint64 `json:"itemId"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// EncodeVotePayload formats a vote the way it would be attached as
// transaction metadata.
func EncodeVotePayload(budgetItemID uint64, amount int64, at time.Time) []byte {
	b, _ := json.Marshal(votePayload{
		Type:      "budget_vote",
		ItemID:    budgetItemID,
		Amount:    amount,
		Timestamp: at.UnixMilli(),
	})
	return b
}

// VoteRef identifies one vote inside a bulk submission.
type VoteRef struct {
	ItemID uint64 `json:"itemId"`
	Amount int64  `json:"amount"`
}

type bulkVotePayload struct {
	Type      string    `json:"type"`
	Votes     []VoteRef `json:"votes"`
	Timestamp int64     `json:"timestamp"`
}

// EncodeBulkVotePayload formats a whole batch as the metadata of a single
// transaction.
func EncodeBulkVotePayload(votes []VoteRef, at time.Time) []byte {
	b, _ := json.Marshal(bulkVotePayload{
		Type:      "budget_vote_bulk",
		Votes:     votes,
		Timestamp: at.UnixMilli(),
	})
	return b
}

// MockSubmitter derives a deterministic-length, unique 64-hex receipt
// from the payload. Salting with a UUID keeps repeat votes on the same
// item from colliding.
type MockSubmitter struct{}

func (MockSubmitter) Submit(_ context.Context, payload []byte) (string, error) {
	salted := append([]byte(uuid.NewString()), payload...)
	sum := blake2b.Sum256(salted)
	return hex.EncodeToString(sum[:]), nil
}

// VerifySignature checks a wallet's signature over a challenge nonce.
// Real CIP-8 verification needs the wallet's COSE key; until that lands
// we only require that the wallet signed something.
func VerifySignature(address, signature, nonce string) error {
	if address == "" || signature == "" || nonce == "" {
		return errors.New("missing signature material")
	}
	return nil
}
