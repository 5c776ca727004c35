package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/portfolio"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/Mohsinsiddi/w3ledger/internal/units"
)

var (
	portfolioRPC    string
	portfolioTokens string
	portfolioList   string
	portfolioLive   bool
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio [account]",
	Short: "Scan an account's token portfolio",
	Long: `Scan an account's native balance and token holdings.

Queries run against the local sim by default; --rpc points them at a
live endpoint (a registered name, a raw URL, or "best"). A token that
cannot answer degrades to fallback values instead of failing the scan.

Tokens come from --tokens, a named --list, or — on the sim — every
deployed token.

Examples:
  w3ledger portfolio alice
  w3ledger portfolio vitalik.eth --list majors --rpc mainnet
  w3ledger portfolio 0xf39F...2266 --tokens 0xA0b8...,0x6B17... --rpc best --live`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		ctx := context.Background()
		reader, hostName, err := liveReader(ctx, host, portfolioRPC)
		if err != nil {
			return err
		}

		accountArg := ""
		if len(args) == 1 {
			accountArg = args[0]
		}
		account, err := resolveQueryAccount(ctx, reader, accountArg)
		if err != nil {
			return err
		}
		tokens, err := queryTokens(host, reader)
		if err != nil {
			return err
		}

		if portfolioLive {
			return runLivePortfolio(reader, hostName, account, tokens)
		}
		return printPortfolio(ctx, reader, hostName, account, tokens)
	},
}

var portfolioBalancesCmd = &cobra.Command{
	Use:   "balances [account]",
	Short: "Show raw token balances, one per token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		ctx := context.Background()
		reader, hostName, err := liveReader(ctx, host, portfolioRPC)
		if err != nil {
			return err
		}

		accountArg := ""
		if len(args) == 1 {
			accountArg = args[0]
		}
		account, err := resolveQueryAccount(ctx, reader, accountArg)
		if err != nil {
			return err
		}
		tokens, err := queryTokens(host, reader)
		if err != nil {
			return err
		}

		agg := portfolio.New(reader)
		balances, err := agg.BatchBalances(ctx, tokens, account)
		if err != nil {
			return err
		}

		fmt.Println(ui.StyleTitle.Render("Balances · " + ui.TruncateAddr(account.Hex()) + "  " + ui.Meta("host: "+hostName)))
		table := ui.NewTable([]ui.Column{
			{Title: "TOKEN", Width: 44},
			{Title: "RAW BALANCE", Width: 32},
		})
		for i, token := range tokens {
			table.AddRow(ui.Row{token.Hex(), balances[i].Dec()})
		}
		fmt.Println(table.Render())
		return nil
	},
}

var portfolioCheckCmd = &cobra.Command{
	Use:   "check <addr,addr,...>",
	Short: "Check which addresses have deployed code",
	Long: `Check which of the given addresses hold contract code — the
pre-validation step before trusting them as tokens in a scan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		ctx := context.Background()
		reader, hostName, err := liveReader(ctx, host, portfolioRPC)
		if err != nil {
			return err
		}
		addrs, err := parseAddrList(args[0])
		if err != nil {
			return err
		}

		agg := portfolio.New(reader)
		flags, err := agg.BatchIsContract(ctx, addrs)
		if err != nil {
			return err
		}

		fmt.Println(ui.StyleTitle.Render("Code Check  " + ui.Meta("host: "+hostName)))
		table := ui.NewTable([]ui.Column{
			{Title: "ADDRESS", Width: 44},
			{Title: "CONTRACT", Width: 10},
		})
		for i, addr := range addrs {
			mark := "—"
			if flags[i] {
				mark = "✓"
			}
			table.AddRow(ui.Row{addr.Hex(), mark})
		}
		fmt.Println(table.Render())
		return nil
	},
}

// queryTokens resolves the token set for a scan: --tokens wins, then a named
// --list, then every sim-deployed token when querying the sim.
func queryTokens(host *chain.SimHost, reader chain.Reader) ([]common.Address, error) {
	switch {
	case portfolioTokens != "":
		return parseAddrList(portfolioTokens)

	case portfolioList != "":
		tf, err := cfg.LoadTokens()
		if err != nil {
			return nil, err
		}
		raw, ok := tf.List(portfolioList)
		if !ok {
			return nil, fmt.Errorf("token list %q not found — run `w3ledger token lists show`", portfolioList)
		}
		return parseAddrList(strings.Join(raw, ","))

	case reader == chain.Reader(host):
		return host.TokenAddresses(), nil

	default:
		return nil, fmt.Errorf("live queries need --tokens or --list")
	}
}

func printPortfolio(ctx context.Context, reader chain.Reader, hostName string, account common.Address, tokens []common.Address) error {
	spin := ui.NewSpinner(fmt.Sprintf("Scanning %d tokens...", len(tokens)))
	spin.Start()

	agg := portfolio.New(reader)
	view, err := agg.Portfolio(ctx, account, tokens)
	spin.Stop()
	if err != nil {
		return err
	}

	fmt.Println(ui.StyleTitle.Render("Portfolio · " + ui.TruncateAddr(account.Hex()) + "  " + ui.Meta("host: "+hostName)))
	fmt.Println("  " + ui.Meta("native") + "  " + ui.Val(units.FormatEth(view.NativeBalance)+" ETH"))
	fmt.Println()

	if len(view.Tokens) == 0 {
		fmt.Println(ui.Info("No tokens to scan"))
		return nil
	}

	table := ui.NewTable([]ui.Column{
		{Title: "TOKEN", Width: 14},
		{Title: "SYMBOL", Width: 10},
		{Title: "BALANCE", Width: 26},
		{Title: "NAME", Width: 24},
	})
	for _, info := range view.Tokens {
		table.AddRow(ui.Row{
			ui.TruncateAddr(info.Token.Hex()),
			info.Symbol,
			units.FormatUnits(info.Balance, info.Decimals),
			info.Name,
		})
	}
	fmt.Println(table.Render())
	return nil
}

// runLivePortfolio streams per-token results into the bubbletea scan table
// as they arrive, one goroutine per token.
func runLivePortfolio(reader chain.Reader, hostName string, account common.Address, tokens []common.Address) error {
	tokenStrs := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrs[i] = t.Hex()
	}

	model := ui.NewPortfolioModel(account.Hex(), hostName, tokenStrs)
	prog := tea.NewProgram(model)
	agg := portfolio.New(reader)

	go func() {
		ctx := context.Background()
		bal, err := agg.EthBalance(ctx, account)
		msg := ui.PortfolioNativeMsg{Err: err}
		if err == nil {
			msg.Balance = units.FormatEth(bal)
		}
		prog.Send(msg)
	}()

	for _, token := range tokens {
		go func(token common.Address) {
			ctx := context.Background()
			start := time.Now()
			infos, err := agg.BatchTokenInfo(ctx, []common.Address{token}, account)

			res := ui.PortfolioResult{Token: token.Hex(), Latency: time.Since(start), Err: err}
			if err == nil {
				info := infos[0]
				res.Balance = units.FormatUnits(info.Balance, info.Decimals)
				res.Symbol = info.Symbol
				res.Name = info.Name
			}
			prog.Send(ui.PortfolioResultMsg(res))
		}(token)
	}

	_, err := prog.Run()
	return err
}

func init() {
	for _, c := range []*cobra.Command{portfolioCmd, portfolioBalancesCmd, portfolioCheckCmd} {
		c.Flags().StringVar(&portfolioRPC, "rpc", "", "endpoint name, URL, or \"best\" (default: sim)")
	}
	portfolioCmd.Flags().StringVar(&portfolioTokens, "tokens", "", "comma-separated token addresses")
	portfolioCmd.Flags().StringVar(&portfolioList, "list", "", "named token list (see `w3ledger token lists`)")
	portfolioCmd.Flags().BoolVar(&portfolioLive, "live", false, "stream results into a live table")
	portfolioBalancesCmd.Flags().StringVar(&portfolioTokens, "tokens", "", "comma-separated token addresses")
	portfolioBalancesCmd.Flags().StringVar(&portfolioList, "list", "", "named token list")

	portfolioCmd.AddCommand(portfolioBalancesCmd, portfolioCheckCmd)
}
