package domain

// Amount is a monetary value in minor currency units. All prices,
// totals and change computations use integer arithmetic; there is no
// floating point anywhere in the money path.
type Amount int64
