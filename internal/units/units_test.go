package units

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// formatting
// ---------------------------------------------------------------------------

func TestFormatEthWholeNumber(t *testing.T) {
	wei := uint256.MustFromDecimal("1000000000000000000")
	assert.Equal(t, "1.000000000000000000", FormatEth(wei))
}

func TestFormatEthFraction(t *testing.T) {
	wei := uint256.MustFromDecimal("1500000000000000000")
	assert.Equal(t, "1.500000000000000000", FormatEth(wei))
}

func TestFormatEthZero(t *testing.T) {
	assert.Equal(t, "0.000000000000000000", FormatEth(new(uint256.Int)))
	assert.Equal(t, "0.000000000000000000", FormatEth(nil))
}

func TestFormatUnitsTokenScale(t *testing.T) {
	assert.Equal(t, "1.234567", FormatUnits(uint256.NewInt(1_234_567), 6))
}

func TestFormatUnitsZeroDecimals(t *testing.T) {
	assert.Equal(t, "42", FormatUnits(uint256.NewInt(42), 0))
}

// ---------------------------------------------------------------------------
// parsing
// ---------------------------------------------------------------------------

func TestParseEthWholeNumber(t *testing.T) {
	wei, err := ParseEth("2")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", wei.Dec())
}

func TestParseEthFraction(t *testing.T) {
	wei, err := ParseEth("0.5")
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", wei.Dec())
}

func TestParseEthRejectsGarbage(t *testing.T) {
	_, err := ParseEth("not-a-number")
	assert.Error(t, err)
}

func TestParseEthRejectsNegative(t *testing.T) {
	_, err := ParseEth("-1")
	assert.Error(t, err)
}

func TestParseUnitsTokenScale(t *testing.T) {
	raw, err := ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000), raw.Uint64())
}

func TestParseUnitsTruncatesSubUnit(t *testing.T) {
	raw, err := ParseUnits("0.0000001", 6)
	require.NoError(t, err)
	assert.True(t, raw.IsZero())
}

func TestParseAmountDecimal(t *testing.T) {
	v, err := ParseAmount("12345")
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), v.Uint64())
}

func TestParseAmountHex(t *testing.T) {
	// 2 ETH in wei.
	v, err := ParseAmount("0x1BC16D674EC80000")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", v.Dec())
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("xyz")
	assert.Error(t, err)

	_, err = ParseAmount("-5")
	assert.Error(t, err)
}

func TestParseAmountRejectsOverflow(t *testing.T) {
	// 2^256 needs 257 bits.
	_, err := ParseAmount("0x10000000000000000000000000000000000000000000000000000000000000000")
	assert.Error(t, err)
}

func TestParseFormatRoundTrip(t *testing.T) {
	wei, err := ParseEth("3.25")
	require.NoError(t, err)
	assert.Equal(t, "3.250000000000000000", FormatEth(wei))
}
