package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tokB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	tokC = "0xcccccccccccccccccccccccccccccccccccccccc"
)

func step(t *testing.T, m PortfolioModel, msg tea.Msg) (PortfolioModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(PortfolioModel)
	require.True(t, ok)
	return model, cmd
}

func TestNewPortfolioModelSeedsFetchingRows(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA, tokB})

	require.Len(t, m.Rows, 2)
	assert.Equal(t, tokA, m.Rows[0].Token)
	assert.Equal(t, tokB, m.Rows[1].Token)
	assert.Equal(t, PortfolioFetching, m.Rows[0].Status)
	assert.Equal(t, 2, m.Total)
	assert.Equal(t, 0, m.Done)
	assert.Equal(t, 1, m.Index[tokB])
}

func TestPortfolioResultMarksRowDone(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA, tokB})

	m, _ = step(t, m, PortfolioResultMsg{
		Token:   tokA,
		Balance: "1.000000",
		Symbol:  "TST",
		Name:    "Test Token",
		Latency: 5 * time.Millisecond,
	})

	row := m.Rows[m.Index[tokA]]
	assert.Equal(t, PortfolioDone, row.Status)
	assert.Equal(t, "1.000000", row.Balance)
	assert.Equal(t, "TST", row.Symbol)
	assert.Equal(t, 1, m.Done)
	assert.False(t, m.Quitting)
}

func TestPortfolioResultErrorTrimmed(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA})

	long := errors.New("fetch failed: dial tcp 127.0.0.1:8545: connect: connection refused")
	m, _ = step(t, m, PortfolioResultMsg{Token: tokA, Err: long})

	row := m.Rows[0]
	assert.Equal(t, PortfolioError, row.Status)
	assert.True(t, len(row.Err) <= 34)
	assert.Contains(t, row.Err, "dial tcp")
}

func TestPortfolioUnknownTokenIgnored(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA})

	m, _ = step(t, m, PortfolioResultMsg{Token: tokC, Balance: "9"})

	assert.Equal(t, 0, m.Done)
	assert.Equal(t, PortfolioFetching, m.Rows[0].Status)
}

func TestPortfolioQuitsWhenAllDone(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA})

	m, _ = step(t, m, PortfolioNativeMsg{Balance: "100.000000000000000000"})
	require.True(t, m.NativeDone)
	assert.False(t, m.Quitting, "still waiting on token rows")

	m, cmd := step(t, m, PortfolioResultMsg{Token: tokA, Balance: "1.0", Symbol: "TST"})
	assert.True(t, m.Quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestPortfolioSortsByBalanceDescending(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA, tokB, tokC})

	m, _ = step(t, m, PortfolioNativeMsg{Balance: "1.0"})
	m, _ = step(t, m, PortfolioResultMsg{Token: tokA, Balance: "1.000000", Symbol: "AAA"})
	m, _ = step(t, m, PortfolioResultMsg{Token: tokC, Err: errors.New("boom")})
	m, _ = step(t, m, PortfolioResultMsg{Token: tokB, Balance: "5.000000", Symbol: "BBB"})

	require.True(t, m.Quitting)
	assert.Equal(t, tokB, m.Rows[0].Token, "largest balance first")
	assert.Equal(t, tokA, m.Rows[1].Token)
	assert.Equal(t, tokC, m.Rows[2].Token, "errors sort last")
	assert.Equal(t, 0, m.Index[tokB], "index follows sorted order")
}

func TestPortfolioNativeErrorRecorded(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA})

	m, _ = step(t, m, PortfolioNativeMsg{Err: errors.New("host unreachable")})

	assert.True(t, m.NativeDone)
	assert.Equal(t, "host unreachable", m.NativeErr)
}

func TestPortfolioKeyQuits(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA})

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	assert.True(t, m.Quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestPortfolioTickAdvancesFrame(t *testing.T) {
	m := NewPortfolioModel("0x1234", "sim", []string{tokA})

	m, cmd := step(t, m, portfolioTickMsg(time.Now()))

	assert.Equal(t, 1, m.Frame)
	assert.NotNil(t, cmd, "keeps ticking while rows are pending")
}

func TestPortfolioViewShowsProgress(t *testing.T) {
	m := NewPortfolioModel("0x1234567890abcdef1234567890abcdef12345678", "sim", []string{tokA, tokB})
	m, _ = step(t, m, PortfolioResultMsg{Token: tokA, Balance: "2.5", Symbol: "TST", Name: "Test"})

	view := m.View()
	assert.Contains(t, view, "Portfolio")
	assert.Contains(t, view, "0x1234…5678")
	assert.Contains(t, view, "1/2 tokens")
	assert.Contains(t, view, "SYMBOL")
	assert.Contains(t, view, "TST")
}
