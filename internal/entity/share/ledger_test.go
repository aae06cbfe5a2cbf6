package share

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ds(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = d(v)
	}
	return out
}

func TestValidTotal(t *testing.T) {
	tests := []struct {
		name   string
		shares []decimal.Decimal
		want   bool
	}{
		{name: "exact hundred", shares: ds("60", "40"), want: true},
		{name: "three way with rounding", shares: ds("33.33", "33.33", "33.34"), want: true},
		{name: "within tolerance below", shares: ds("33.33", "33.33", "33.33"), want: true},
		{name: "over by ten", shares: ds("60", "40", "10"), want: false},
		{name: "single member", shares: ds("100"), want: true},
		{name: "all zero", shares: ds("0", "0"), want: false},
		{name: "empty", shares: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidTotal(tt.shares))
		})
	}
}

func TestValidTotalIsPure(t *testing.T) {
	shares := ds("50", "50")
	for i := 0; i < 3; i++ {
		require.True(t, ValidTotal(shares))
	}
	assert.True(t, shares[0].Equal(d("50")))
	assert.True(t, shares[1].Equal(d("50")))
}

func TestRebalance(t *testing.T) {
	tests := []struct {
		name    string
		shares  []decimal.Decimal
		removed int
		want    []string
	}{
		{
			// A=50 B=30 C=20, remove B: A=50/70*100=71.43, C picks up the rest.
			name:    "proportional rescale",
			shares:  ds("50", "30", "20"),
			removed: 1,
			want:    []string{"71.43", "28.57"},
		},
		{
			// All remaining shares are zero, fall back to an equal cut.
			name:    "equal cut when remaining total is zero",
			shares:  ds("0", "0", "100"),
			removed: 2,
			want:    []string{"50", "50"},
		},
		{
			name:    "single survivor gets everything",
			shares:  ds("25", "75"),
			removed: 1,
			want:    []string{"100"},
		},
		{
			name:    "remove zero share keeps others scaled",
			shares:  ds("60", "0", "40"),
			removed: 1,
			want:    []string{"60", "40"},
		},
		{
			// 33.33/66.67*100 rounds to 49.99; the last member absorbs the
			// 0.01 so the total lands back on 100 exactly.
			name:    "thirds rescale with remainder on last",
			shares:  ds("33.33", "33.33", "33.34"),
			removed: 0,
			want:    []string{"49.99", "50.01"},
		},
		{
			name:    "uneven thirds",
			shares:  ds("33.33", "33.33", "33.34"),
			removed: 2,
			want:    []string{"50", "50"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rebalance(tt.shares, tt.removed)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i, w := range tt.want {
				assert.True(t, got[i].Equal(d(w)), "share %d = %s, want %s", i, got[i], w)
			}
			assert.True(t, Sum(got).Equal(Total), "rebalanced total = %s", Sum(got))
		})
	}
}

func TestRebalanceAlwaysSumsToHundred(t *testing.T) {
	groups := [][]decimal.Decimal{
		ds("33.33", "33.33", "33.34"),
		ds("1", "1", "98"),
		ds("12.5", "12.5", "25", "50"),
		ds("0", "0", "0", "100"),
		ds("99.99", "0.01"),
		ds("14.29", "14.29", "14.29", "14.29", "14.28", "14.28", "14.28"),
	}

	for _, shares := range groups {
		for removed := range shares {
			got, err := Rebalance(shares, removed)
			require.NoError(t, err)
			assert.True(t, Sum(got).Equal(Total),
				"shares %v minus index %d sums to %s", shares, removed, Sum(got))
		}
	}
}

func TestRebalanceErrors(t *testing.T) {
	_, err := Rebalance(ds("100"), 0)
	assert.ErrorIs(t, err, ErrLastMember)

	_, err = Rebalance(nil, 0)
	assert.ErrorIs(t, err, ErrLastMember)

	_, err = Rebalance(ds("50", "50"), 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = Rebalance(ds("50", "50"), -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		shares []decimal.Decimal
		want   []string
	}{
		{
			name:   "sixty forty",
			amount: "100",
			shares: ds("60", "40"),
			want:   []string{"60", "40"},
		},
		{
			// Last member absorbs the rounding remainder.
			name:   "thirds of a hundred",
			amount: "100",
			shares: ds("33.33", "33.33", "33.34"),
			want:   []string{"33.33", "33.33", "33.34"},
		},
		{
			name:   "remainder lands on last",
			amount: "0.01",
			shares: ds("50", "50"),
			want:   []string{"0.01", "0"},
		},
		{
			name:   "single member takes all",
			amount: "73.55",
			shares: ds("100"),
			want:   []string{"73.55"},
		},
		{
			name:   "zero share member owes nothing",
			amount: "10",
			shares: ds("0", "100"),
			want:   []string{"0", "10"},
		},
		{
			name:   "tolerated drift still splits fully",
			amount: "100",
			shares: ds("33.33", "33.33", "33.33"),
			want:   []string{"33.33", "33.33", "33.34"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(d(tt.amount), tt.shares)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i, w := range tt.want {
				assert.True(t, got[i].Equal(d(w)), "amount %d = %s, want %s", i, got[i], w)
			}
			assert.True(t, Sum(got).Equal(d(tt.amount)), "split total = %s", Sum(got))
		})
	}
}

// Reordering members moves the remainder to whoever is last, but the total
// never changes.
func TestSplitOrderMovesRemainderOnly(t *testing.T) {
	amount := d("100")

	forward, err := Split(amount, ds("33.33", "33.33", "33.34"))
	require.NoError(t, err)
	reversed, err := Split(amount, ds("33.34", "33.33", "33.33"))
	require.NoError(t, err)

	assert.True(t, forward[2].Equal(d("33.34")))
	assert.True(t, reversed[2].Equal(d("33.33")))
	assert.True(t, Sum(forward).Equal(amount))
	assert.True(t, Sum(reversed).Equal(amount))
}

func TestSplitExactSumOverManyMembers(t *testing.T) {
	// Seven equal-ish shares against an awkward amount: per-member rounding
	// would drift, the last slice must soak it all up.
	shares := ds("14.29", "14.29", "14.29", "14.29", "14.28", "14.28", "14.28")
	amount := d("99.97")

	got, err := Split(amount, shares)
	require.NoError(t, err)
	assert.True(t, Sum(got).Equal(amount), "split total = %s", Sum(got))
}

func TestSplitErrors(t *testing.T) {
	_, err := Split(d("10"), nil)
	assert.ErrorIs(t, err, ErrNoShares)

	_, err = Split(d("10"), ds("60", "30"))
	assert.ErrorIs(t, err, ErrUnbalanced)

	_, err = Split(d("10"), ds("60", "40", "10"))
	assert.ErrorIs(t, err, ErrUnbalanced)
}
