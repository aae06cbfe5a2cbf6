package share

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Places is the precision of persisted shares and money amounts.
const Places = 2

var (
	// Total is the value member shares of an entity must sum to.
	Total = decimal.NewFromInt(100)

	// Tolerance is the accepted deviation from Total when validating.
	Tolerance = decimal.New(1, -2) // 0.01
)

var (
	ErrNoShares        = errors.New("at least one share is required")
	ErrUnbalanced      = errors.New("shares must sum to 100")
	ErrLastMember      = errors.New("the entity must keep at least one member")
	ErrIndexOutOfRange = errors.New("member index out of range")
)

// Sum adds up a list of shares.
func Sum(shares []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s)
	}
	return total
}

// ValidTotal reports whether shares sum to 100 within tolerance. It is the
// precondition gate for every mutation and for splitting an expense.
func ValidTotal(shares []decimal.Decimal) bool {
	return Sum(shares).Sub(Total).Abs().LessThanOrEqual(Tolerance)
}

// Rebalance computes the shares that remain after removing the member at
// index removed, rescaled so the new total is exactly 100.00.
//
// Remaining members keep their relative weight: each share is scaled by
// 100/remainingTotal and rounded to two places. When every remaining share
// is zero there is no weight to preserve, so members get an equal cut
// instead. The last member in order is not rounded; it receives whatever is
// left of 100 (clamped at zero), absorbing the rounding remainder so the
// invariant holds by construction.
func Rebalance(shares []decimal.Decimal, removed int) ([]decimal.Decimal, error) {
	if len(shares) < 2 {
		return nil, ErrLastMember
	}
	if removed < 0 || removed >= len(shares) {
		return nil, ErrIndexOutOfRange
	}

	remaining := make([]decimal.Decimal, 0, len(shares)-1)
	for i, s := range shares {
		if i != removed {
			remaining = append(remaining, s)
		}
	}

	remainingTotal := Sum(remaining)
	equalSplit := remainingTotal.IsZero()
	memberCount := decimal.NewFromInt(int64(len(remaining)))

	result := make([]decimal.Decimal, len(remaining))
	assigned := decimal.Zero
	for i, s := range remaining {
		if i == len(remaining)-1 {
			last := Total.Sub(assigned)
			if last.IsNegative() {
				last = decimal.Zero
			}
			result[i] = last
			break
		}

		var base decimal.Decimal
		if equalSplit {
			base = Total.Div(memberCount)
		} else {
			base = s.Div(remainingTotal).Mul(Total)
		}
		result[i] = base.Round(Places)
		assigned = assigned.Add(result[i])
	}

	return result, nil
}

// Split distributes amount across shares, returning one slice per share in
// the same order. Every slice except the last is the share's proportional
// cut rounded to the currency's minor unit; the last is the exact remainder,
// so the returned amounts always sum to amount exactly.
func Split(amount decimal.Decimal, shares []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	if !ValidTotal(shares) {
		return nil, ErrUnbalanced
	}

	amounts := make([]decimal.Decimal, len(shares))
	assigned := decimal.Zero
	for i, s := range shares {
		if i == len(shares)-1 {
			amounts[i] = amount.Sub(assigned)
			break
		}
		amounts[i] = amount.Mul(s).Div(Total).Round(Places)
		assigned = assigned.Add(amounts[i])
	}

	return amounts, nil
}
