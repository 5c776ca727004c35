package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// padR
// ---------------------------------------------------------------------------

func TestPadRShort(t *testing.T) {
	result := padR("hi", 10)
	assert.Equal(t, 10, len(result))
	assert.True(t, strings.HasPrefix(result, "hi"))
}

func TestPadRExact(t *testing.T) {
	result := padR("hello", 5)
	assert.Equal(t, "hello", result)
}

func TestPadRLonger(t *testing.T) {
	// When string is already longer, return as-is.
	result := padR("toolongstring", 5)
	assert.Equal(t, "toolongstring", result)
}

func TestPadREmpty(t *testing.T) {
	result := padR("", 4)
	assert.Equal(t, "    ", result)
}

func TestPadRZeroWidth(t *testing.T) {
	result := padR("x", 0)
	assert.Equal(t, "x", result)
}

// ---------------------------------------------------------------------------
// trimErr
// ---------------------------------------------------------------------------

func TestTrimErrShortString(t *testing.T) {
	result := trimErr("short error")
	assert.Equal(t, "short error", result)
}

func TestTrimErrLongStringTruncated(t *testing.T) {
	long := strings.Repeat("x", 50)
	result := trimErr(long)
	assert.True(t, len(result) <= 34, "trimErr result length should be truncated")
	assert.Contains(t, result, "…")
}

func TestTrimErrExactly30(t *testing.T) {
	s := strings.Repeat("a", 30)
	result := trimErr(s)
	assert.Equal(t, s, result, "30 chars is exact limit — no truncation")
}

func TestTrimErrDialTCP(t *testing.T) {
	s := "some prefix: dial tcp 127.0.0.1:8545: connection refused"
	result := trimErr(s)
	assert.True(t, strings.HasPrefix(result, "dial tcp"), "should trim to 'dial tcp' prefix")
}

func TestTrimErrContextDeadline(t *testing.T) {
	s := "error fetching: context deadline exceeded (Client.Timeout exceeded while awaiting headers)"
	result := trimErr(s)
	assert.True(t, strings.HasPrefix(result, "context deadline"))
}

func TestTrimErrNoMatch(t *testing.T) {
	s := "RPC error: method not found"
	result := trimErr(s)
	// No matching prefix — string returned with truncation if needed.
	assert.Equal(t, s, result)
}

// ---------------------------------------------------------------------------
// balanceFloat
// ---------------------------------------------------------------------------

func TestBalanceFloatParsesFormatted(t *testing.T) {
	row := PortfolioRow{Balance: "1234.56"}
	assert.InDelta(t, 1234.56, row.balanceFloat(), 0.001)
}

func TestBalanceFloatEmpty(t *testing.T) {
	row := PortfolioRow{Balance: ""}
	assert.Equal(t, float64(0), row.balanceFloat())
}

func TestBalanceFloatGarbage(t *testing.T) {
	row := PortfolioRow{Balance: "—"}
	assert.Equal(t, float64(0), row.balanceFloat())
}

func TestBalanceFloatSmall(t *testing.T) {
	row := PortfolioRow{Balance: "0.000001"}
	assert.InDelta(t, 0.000001, row.balanceFloat(), 1e-9)
}

func TestBalanceFloatZeroString(t *testing.T) {
	row := PortfolioRow{Balance: "0.000000"}
	assert.Equal(t, float64(0), row.balanceFloat())
}
