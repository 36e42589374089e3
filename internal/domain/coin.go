package domain

// Coin tracks how many physical coins of one denomination the machine
// holds. Quantity must never go negative; callers that adjust it are
// responsible for checking the result before committing.
type Coin struct {
	Denomination int `json:"denomination" db:"denomination"`
	Quantity     int `json:"quantity" db:"quantity"`
}

// ChangeBreakdown maps a denomination to the number of coins to return.
type ChangeBreakdown map[int]int

// Total returns the monetary value of the breakdown.
func (b ChangeBreakdown) Total() Amount {
	var total Amount
	for denomination, count := range b {
		total += Amount(denomination) * Amount(count)
	}
	return total
}
