package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PortfolioStatus is the per-token status in the portfolio scan.
type PortfolioStatus int

const (
	PortfolioPending PortfolioStatus = iota
	PortfolioFetching
	PortfolioDone
	PortfolioError
)

// PortfolioRow is one token's row in the scan table.
type PortfolioRow struct {
	Token   string
	Status  PortfolioStatus
	Balance string
	Symbol  string
	Name    string
	Latency time.Duration
	Err     string
}

// PortfolioResult carries one token's finished fetch.
type PortfolioResult struct {
	Token   string
	Balance string
	Symbol  string
	Name    string
	Latency time.Duration
	Err     error
}

// PortfolioResultMsg wraps a PortfolioResult for Bubble Tea.
type PortfolioResultMsg PortfolioResult

// PortfolioNativeMsg carries the account's native balance.
type PortfolioNativeMsg struct {
	Balance string
	Err     error
}

type portfolioTickMsg time.Time

var portfolioSpinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// PortfolioModel renders a live token scan for one account.
type PortfolioModel struct {
	Account string
	Host    string

	Rows  []PortfolioRow
	Index map[string]int

	Native     string
	NativeDone bool
	NativeErr  string

	Done      int
	Total     int
	Frame     int
	StartedAt time.Time
	Quitting  bool
}

// NewPortfolioModel builds the model with one pending row per token.
func NewPortfolioModel(account, host string, tokens []string) PortfolioModel {
	rows := make([]PortfolioRow, len(tokens))
	index := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		rows[i] = PortfolioRow{Token: tok, Status: PortfolioFetching}
		index[tok] = i
	}
	return PortfolioModel{
		Account:   account,
		Host:      host,
		Rows:      rows,
		Index:     index,
		Total:     len(tokens),
		StartedAt: time.Now(),
	}
}

func portfolioTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return portfolioTickMsg(t)
	})
}

func (m PortfolioModel) Init() tea.Cmd {
	return portfolioTick()
}

func (m PortfolioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case PortfolioNativeMsg:
		m.NativeDone = true
		if msg.Err != nil {
			m.NativeErr = trimErr(msg.Err.Error())
		} else {
			m.Native = msg.Balance
		}
		if m.finished() {
			m.Quitting = true
			return m, tea.Quit
		}
		return m, nil

	case PortfolioResultMsg:
		i, ok := m.Index[msg.Token]
		if !ok {
			return m, nil
		}
		row := &m.Rows[i]
		row.Latency = msg.Latency
		if msg.Err != nil {
			row.Status = PortfolioError
			row.Err = trimErr(msg.Err.Error())
		} else {
			row.Status = PortfolioDone
			row.Balance = msg.Balance
			row.Symbol = msg.Symbol
			row.Name = msg.Name
		}
		m.Done++
		if m.finished() {
			m.sortRows()
			m.Quitting = true
			return m, tea.Quit
		}
		return m, nil

	case portfolioTickMsg:
		if m.Quitting {
			return m, nil
		}
		m.Frame++
		return m, portfolioTick()
	}
	return m, nil
}

func (m PortfolioModel) finished() bool {
	return m.Done >= m.Total && m.NativeDone
}

// sortRows orders finished rows by balance descending, errors last.
func (m *PortfolioModel) sortRows() {
	sort.SliceStable(m.Rows, func(i, j int) bool {
		a, b := m.Rows[i], m.Rows[j]
		if (a.Status == PortfolioError) != (b.Status == PortfolioError) {
			return b.Status == PortfolioError
		}
		return a.balanceFloat() > b.balanceFloat()
	})
	for i, r := range m.Rows {
		m.Index[r.Token] = i
	}
}

func (m PortfolioModel) View() string {
	var b strings.Builder

	title := StyleTitle.Render("⚡ Portfolio · " + TruncateAddr(m.Account))
	b.WriteString("\n" + title + "  " + StyleMeta.Render("host: "+m.Host) + "\n\n")

	if m.NativeDone && m.NativeErr == "" {
		b.WriteString("  " + StyleMeta.Render("native") + "  " + StyleValue.Render(m.Native+" ETH") + "\n\n")
	} else if m.NativeErr != "" {
		b.WriteString("  " + StyleMeta.Render("native") + "  " + StyleError.Render(m.NativeErr) + "\n\n")
	} else {
		spin := portfolioSpinFrames[m.Frame%len(portfolioSpinFrames)]
		b.WriteString("  " + StyleMeta.Render("native") + "  " + StyleAccent.Render(spin) + "\n\n")
	}

	header := "  " + padR(StyleHeader.Render("TOKEN"), 16) +
		padR(StyleHeader.Render("SYMBOL"), 10) +
		padR(StyleHeader.Render("BALANCE"), 26) +
		padR(StyleHeader.Render("NAME"), 22) +
		StyleHeader.Render("TIME")
	b.WriteString(header + "\n")

	for _, row := range m.Rows {
		b.WriteString(m.renderRow(row) + "\n")
	}

	elapsed := time.Since(m.StartedAt).Round(100 * time.Millisecond)
	footer := fmt.Sprintf("  %d/%d tokens · %s", m.Done, m.Total, elapsed)
	if !m.finished() {
		footer += " · q to cancel"
	}
	b.WriteString("\n" + StyleMeta.Render(footer) + "\n")

	return b.String()
}

func (m PortfolioModel) renderRow(row PortfolioRow) string {
	token := padR(StyleAddress.Render(TruncateAddr(row.Token)), 16)

	switch row.Status {
	case PortfolioDone:
		return "  " + token +
			padR(StyleAccent.Render(row.Symbol), 10) +
			padR(StyleValue.Render(row.Balance), 26) +
			padR(StyleMeta.Render(row.Name), 22) +
			StyleMeta.Render(row.Latency.Round(time.Millisecond).String())

	case PortfolioError:
		return "  " + token +
			padR(StyleError.Render("✗"), 10) +
			padR(StyleError.Render(row.Err), 26) +
			padR("", 22) +
			StyleMeta.Render(row.Latency.Round(time.Millisecond).String())

	default:
		spin := portfolioSpinFrames[m.Frame%len(portfolioSpinFrames)]
		return "  " + token + StyleAccent.Render(spin+" fetching…")
	}
}

func (r PortfolioRow) balanceFloat() float64 {
	f, _ := strconv.ParseFloat(r.Balance, 64)
	return f
}

// padR pads s to visible width n (ANSI-safe using lipgloss.Width).
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

func trimErr(s string) string {
	// Strip common noisy prefixes from RPC error messages.
	for _, prefix := range []string{
		"Post \"", "dial tcp", "connection refused",
		"no RPCs configured", "context deadline",
	} {
		if strings.Contains(s, prefix) {
			if idx := strings.Index(s, prefix); idx >= 0 {
				s = s[idx:]
			}
			break
		}
	}
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
