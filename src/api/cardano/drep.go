package cardano

import (
	"errors"
	"math/rand"

	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"gorm.io/gorm"
)

type DRepStatus struct {
	IsDRep      bool  `json:"isDRep"`
	VotingPower int64 `json:"votingPower"` // percentage * 100
}

// Stake addresses granted DRep status while the on-chain registry lookup
// is stubbed out.
var testDRepAddresses = map[string]bool{
	"stake1u8nrng7hhfn7nm0e2m96v80xhwht2j5mmv8jl07xdzh8yccvxk45m": true,
	"stake1uxdu5nhfs9unmqhgdfy3wndlf2fjnwrgqhgn9wvhf5pw0ur3kxj08": true,
	"stake1uy3mjtxb5ggg4pe6eljdr723tnz2x92rcvvrqdw9wmkpeus0ywsj4": true,
}

// CheckDRepStatus resolves whether a stake address belongs to a
// registered DRep and with what voting power. Known users answer from the
// database; otherwise the stubbed registry grants status to the test
// addresses with a pseudo-random power between 1.00% and 5.00%, persisted
// back onto the user row when one exists.
func CheckDRepStatus(db *gorm.DB, stakeAddress string) (DRepStatus, error) {
	var user types.User
	err := db.First(&user, "stake_address = ?", stakeAddress).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return DRepStatus{}, err
	}
	found := err == nil

	if found && user.IsDRep {
		return DRepStatus{IsDRep: true, VotingPower: user.VotingPower}, nil
	}

	if testDRepAddresses[stakeAddress] {
		power := int64(rand.Intn(400) + 100)
		if found {
			updates := map[string]interface{}{"is_drep": true, "voting_power": power}
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				return DRepStatus{}, err
			}
		}
		return DRepStatus{IsDRep: true, VotingPower: power}, nil
	}

	return DRepStatus{}, nil
}
