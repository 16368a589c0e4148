package amount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutureShockco/meeray-sub006/internal/domain"
)

func testRegistry() Registry {
	return NewRegistry([]domain.Token{
		{Symbol: "MRY", Precision: 8},
		{Symbol: "TESTS", Precision: 3},
	})
}

func TestToSmallestUnit(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name    string
		human   string
		symbol  string
		want    int64
		wantErr bool
	}{
		{name: "whole tokens", human: "50", symbol: "MRY", want: 5_000_000_000},
		{name: "fractional", human: "0.001", symbol: "TESTS", want: 1},
		{name: "full precision", human: "1.23456789", symbol: "MRY", want: 123456789},
		{name: "zero", human: "0", symbol: "MRY", want: 0},
		{name: "trailing zeros", human: "1.50", symbol: "TESTS", want: 1500},
		{name: "too many decimals", human: "0.0001", symbol: "TESTS", wantErr: true},
		{name: "negative", human: "-1", symbol: "MRY", wantErr: true},
		{name: "not a number", human: "abc", symbol: "MRY", wantErr: true},
		{name: "overflow", human: "999999999999999999999", symbol: "MRY", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.ToSmallestUnit(tt.human, tt.symbol)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToHumanAmount(t *testing.T) {
	reg := testRegistry()

	assert.Equal(t, "50", reg.ToHumanAmount(5_000_000_000, "MRY"))
	assert.Equal(t, "0.001", reg.ToHumanAmount(1, "TESTS"))
	assert.Equal(t, "1.23456789", reg.ToHumanAmount(123456789, "MRY"))
	assert.Equal(t, "0", reg.ToHumanAmount(0, "MRY"))
}

func TestToSmallestUnitRoundTrip(t *testing.T) {
	reg := testRegistry()

	for _, human := range []string{"0.001", "1.5", "61.75", "123456.789"} {
		v, err := reg.ToSmallestUnit(human, "TESTS")
		require.NoError(t, err)
		assert.Equal(t, human, reg.ToHumanAmount(v, "TESTS"))
	}
}

func TestToHumanAmountCanonicalizesTrailingZeros(t *testing.T) {
	reg := testRegistry()

	// "1.50" and "1.500" are the same value as "1.5"; all three formats
	// produce one smallest-unit amount and one canonical string back
	for _, human := range []string{"1.5", "1.50", "1.500"} {
		v, err := reg.ToSmallestUnit(human, "TESTS")
		require.NoError(t, err)
		assert.Equal(t, int64(1500), v)
		assert.Equal(t, "1.5", reg.ToHumanAmount(v, "TESTS"))
	}
}

func TestPriceOf(t *testing.T) {
	reg := testRegistry()

	// 50 MRY (8 decimals) traded for 61.75 TESTS (3 decimals):
	// floor(61750 * 10^8 / 5000000000) = 1235
	price, err := reg.PriceOf(61750, 5_000_000_000, "MRY")
	require.NoError(t, err)
	assert.Equal(t, int64(1235), price)

	// zero inputs price at zero rather than erroring
	price, err = reg.PriceOf(0, 5_000_000_000, "MRY")
	require.NoError(t, err)
	assert.Equal(t, int64(0), price)

	price, err = reg.PriceOf(61750, 0, "MRY")
	require.NoError(t, err)
	assert.Equal(t, int64(0), price)
}

func TestPriceOfTruncates(t *testing.T) {
	reg := testRegistry()

	// 1 quote unit for 3 base units at 8 decimals truncates, never rounds up
	price, err := reg.PriceOf(1, 3, "MRY")
	require.NoError(t, err)
	assert.Equal(t, int64(33333333), price)
}

func TestMulDiv(t *testing.T) {
	// trade total from the price formula: floor(1235 * 5e9 / 1e8) = 61750
	v, err := MulDiv(1235, 5_000_000_000, 100_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(61750), v)

	// floors
	v, err = MulDiv(10, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(33), v)

	// intermediate product beyond int64 is fine
	v, err = MulDiv(1<<62, 4, 2)
	require.Error(t, err) // result overflows

	_, err = MulDiv(1, 1, 0)
	require.Error(t, err)

	_, err = MulDiv(-1, 1, 1)
	require.Error(t, err)

	// large intermediate, representable result
	v, err = MulDiv(1<<62, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<61), v)
}

func TestSqrt(t *testing.T) {
	assert.Equal(t, int64(0), Sqrt(0, 5))
	assert.Equal(t, int64(100), Sqrt(100, 100))
	// floor(sqrt(1e9 * 5e5)) = floor(sqrt(5e14)) = 22360679
	assert.Equal(t, int64(22360679), Sqrt(1_000_000_000, 500_000))
}

func TestRegistryDefaultPrecision(t *testing.T) {
	reg := testRegistry()
	assert.Equal(t, domain.DefaultPrecision, reg.Precision("UNKNOWN"))
	assert.Equal(t, uint8(3), reg.Precision("TESTS"))
}
