package budget

import (
	"math"
	"sort"
)

// ComputeConsensus turns the full vote set of a budget item into its
// consensus amount and the percentage of the suggested amount it funds.
// Amounts are lovelace; the percentage is scaled by 100 so two decimal
// places survive integer storage (10000 = 100.00%). Votes beyond 100 get
// the top and bottom 1% trimmed before the median so coordinated extreme
// votes cannot drag the result; smaller elections are used untrimmed.
func ComputeConsensus(amounts []int64, suggestedAmount int64) (consensus, percentageOfSuggested int64) {
	if len(amounts) == 0 {
		return 0, 0
	}

	sorted := make([]int64, len(amounts))
	copy(sorted, amounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if len(sorted) > 100 {
		trim := len(sorted) / 100
		sorted = sorted[trim : len(sorted)-trim]
	}

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		consensus = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		consensus = sorted[mid]
	}

	if suggestedAmount > 0 {
		percentageOfSuggested = int64(math.Round(float64(consensus) / float64(suggestedAmount) * 10000))
	}
	return consensus, percentageOfSuggested
}

// AmountAdmissible decides whether a positive proposed amount may be cast
// against the item's existing vote set. Callers skip it for zero votes: a
// zero vote is always admissible and feeds future checks as evidence.
// Once more than half of the existing votes are zero the majority has
// said "do not fund" and no positive allocation is accepted.
func AmountAdmissible(existing []int64, proposedAmount int64) bool {
	if len(existing) == 0 {
		return proposedAmount > 0
	}

	zeros := 0
	for _, a := range existing {
		if a == 0 {
			zeros++
		}
	}
	return zeros*2 <= len(existing)
}
