package service

import "vendo/internal/domain"

// MakeChange computes a change breakdown for amount using a greedy,
// largest-denomination-first walk over the given coin inventory. Coins
// must be sorted by denomination descending. The second return value is
// whatever could not be covered: zero means exact change, anything
// greater means the coin supply cannot make up the amount and the
// caller must treat the whole payment as failed.
//
// Greedy is only exact for canonical denomination sets (the machine
// runs 1/2/5/10). It is not a general coin-change solver and will miss
// solutions on non-canonical sets.
//
// The function is pure: it never mutates coins and performs no I/O.
func MakeChange(amount domain.Amount, coins []domain.Coin) (domain.ChangeBreakdown, domain.Amount) {
	breakdown := domain.ChangeBreakdown{}
	remaining := amount

	for _, coin := range coins {
		if remaining <= 0 || coin.Denomination <= 0 {
			continue
		}
		count := int(remaining / domain.Amount(coin.Denomination))
		if count > coin.Quantity {
			count = coin.Quantity
		}
		if count > 0 {
			breakdown[coin.Denomination] = count
			remaining -= domain.Amount(count) * domain.Amount(coin.Denomination)
		}
	}

	return breakdown, remaining
}
