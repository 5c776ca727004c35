package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/portfolio"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/Mohsinsiddi/w3ledger/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var (
	tokenName     string
	tokenSymbol   string
	tokenDecimals uint8
	tokenSupply   string
	tokenSupplyTo string

	tokenFrom      string
	tokenBatchTo   string
	tokenBatchAmts string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage sim ERC-20s and route token transfers",
	Long: `Deploy and manage ERC-20 tokens on the sim chain, and route token
transfers through the ledger.

The ledger moves tokens with transferFrom, so the sender must first
approve the ledger as a spender on the token.

Sub-commands:
  w3ledger token deploy --name "Test" --symbol TST --supply 1000000 --to alice
  w3ledger token mint <token> <account> <amount>
  w3ledger token approve <token> <amount> --from alice
  w3ledger token balance <token> [account]
  w3ledger token info <token>
  w3ledger token list
  w3ledger token send <token> <recipient> <amount> --from alice
  w3ledger token send-batch <token> --to bob,carol --amounts 10,20 --from alice
  w3ledger token lists ...                — named token lists for portfolio`,
}

// ── sim token management ──────────────────────────────────────────────────────

var tokenDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a new ERC-20 on the sim chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenName == "" || tokenSymbol == "" {
			return fmt.Errorf("--name and --symbol are required")
		}

		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		token := chain.NewERC20Token(tokenName, tokenSymbol, tokenDecimals)
		if tokenSupply != "" {
			holder, err := resolveAccount(tokenSupplyTo)
			if err != nil {
				return err
			}
			supply, err := parseTokenAmount(tokenSupply, tokenDecimals)
			if err != nil {
				return err
			}
			token.Mint(holder, supply)
		}

		addr := host.NextAddress()
		host.Deploy(addr, token)
		if err := saveChain(jnl, host); err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Token Deployed", [][2]string{
			{"Address", ui.Addr(addr.Hex())},
			{"Name", tokenName},
			{"Symbol", ui.Symbol(tokenSymbol)},
			{"Decimals", fmt.Sprintf("%d", tokenDecimals)},
		}))
		fmt.Println(ui.Hint("Approve the ledger before sending: `w3ledger token approve " + addr.Hex() + " <amount> --from <holder>`"))
		return nil
	},
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint <token> <account> <amount>",
	Short: "Mint sim tokens to an account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		token, _, err := simToken(host, args[0])
		if err != nil {
			return err
		}
		account, err := resolveAccount(args[1])
		if err != nil {
			return err
		}
		amount, err := parseTokenAmount(args[2], token.Decimals)
		if err != nil {
			return err
		}

		token.Mint(account, amount)
		if err := saveChain(jnl, host); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Minted %s %s to %s",
			units.FormatUnits(amount, token.Decimals), token.Symbol, account.Hex())))
		return nil
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve <token> <amount>",
	Short: "Approve the ledger to spend the caller's tokens",
	Long: `Approve the ledger as a spender on a sim token — the precondition for
token send. Use "max" for an unlimited approval.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(tokenFrom)
		if err != nil {
			return err
		}

		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		token, _, err := simToken(host, args[0])
		if err != nil {
			return err
		}

		amount := maxApproval()
		display := "unlimited"
		if args[1] != "max" {
			amount, err = parseTokenAmount(args[1], token.Decimals)
			if err != nil {
				return err
			}
			display = units.FormatUnits(amount, token.Decimals) + " " + token.Symbol
		}

		token.Approve(from, ledgerAddr, amount)
		if err := saveChain(jnl, host); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Approved ledger to spend %s from %s", display, from.Hex())))
		return nil
	},
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance <token> [account]",
	Short: "Show a token balance",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		reader, hostName, err := liveReader(context.Background(), host, portfolioRPC)
		if err != nil {
			return err
		}

		ctx := context.Background()
		token, err := resolveQueryAccount(ctx, reader, args[0])
		if err != nil {
			return err
		}
		accountArg := ""
		if len(args) == 2 {
			accountArg = args[1]
		}
		account, err := resolveQueryAccount(ctx, reader, accountArg)
		if err != nil {
			return err
		}

		agg := portfolio.New(reader)
		infos, err := agg.BatchTokenInfo(ctx, []common.Address{token}, account)
		if err != nil {
			return err
		}
		info := infos[0]

		fmt.Println(ui.KeyValueBlock("Token Balance", [][2]string{
			{"Host", hostName},
			{"Token", ui.Addr(token.Hex())},
			{"Account", ui.Addr(account.Hex())},
			{"Balance", units.FormatUnits(info.Balance, info.Decimals) + " " + info.Symbol},
		}))
		return nil
	},
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info <token>",
	Short: "Show a token's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		reader, hostName, err := liveReader(context.Background(), host, portfolioRPC)
		if err != nil {
			return err
		}

		ctx := context.Background()
		token, err := resolveQueryAccount(ctx, reader, args[0])
		if err != nil {
			return err
		}

		agg := portfolio.New(reader)
		dec, err := agg.TokenDecimals(ctx, token)
		if err != nil {
			return err
		}
		sym, err := agg.TokenSymbol(ctx, token)
		if err != nil {
			return err
		}
		name, err := agg.TokenName(ctx, token)
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Token", [][2]string{
			{"Host", hostName},
			{"Address", ui.Addr(token.Hex())},
			{"Name", name},
			{"Symbol", ui.Symbol(sym)},
			{"Decimals", fmt.Sprintf("%d", dec)},
		}))
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tokens deployed on the sim chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		addrs := host.TokenAddresses()
		if len(addrs) == 0 {
			fmt.Println(ui.Info("No tokens deployed — try `w3ledger token deploy`"))
			return nil
		}

		table := ui.NewTable([]ui.Column{
			{Title: "ADDRESS", Width: 44},
			{Title: "SYMBOL", Width: 10},
			{Title: "NAME", Width: 24},
			{Title: "DECIMALS", Width: 8},
		})
		for _, addr := range addrs {
			token, _ := host.Token(addr)
			table.AddRow(ui.Row{addr.Hex(), token.Symbol, token.Name, fmt.Sprintf("%d", token.Decimals)})
		}
		fmt.Println(table.Render())
		return nil
	},
}

// ── token transfers through the ledger ────────────────────────────────────────

var tokenSendCmd = &cobra.Command{
	Use:   "send <token> <recipient> <amount>",
	Short: "Route one token transfer through the ledger",
	Long: `Pull tokens from the caller to a recipient via the ledger's
transferFrom call. The caller must have approved the ledger first.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(tokenFrom)
		if err != nil {
			return err
		}
		to, err := resolveAccount(args[1])
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		simTok, token, err := simToken(sess.host, args[0])
		if err != nil {
			return err
		}
		decimals, symbol := simTok.Decimals, simTok.Symbol
		amount, err := parseTokenAmount(args[2], decimals)
		if err != nil {
			return err
		}

		msg := ledger.Msg{Sender: from}
		if err := sess.ldg.SendToken(context.Background(), msg, token, to, amount); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Sent %s %s to %s",
			units.FormatUnits(amount, decimals), symbol, to.Hex())))
		fmt.Println(ui.Meta("  total token sent: " + sess.ldg.TotalTokenSent().Dec() + " units"))
		return nil
	},
}

var tokenSendBatchCmd = &cobra.Command{
	Use:   "send-batch <token>",
	Short: "Route token transfers to many recipients at once",
	Long: `Pull tokens from the caller to many recipients in one atomic batch.

--to and --amounts are parallel comma-separated lists and must be the
same length. Any failed transfer rolls the whole batch back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(tokenFrom)
		if err != nil {
			return err
		}
		recipients, err := parseAddrList(tokenBatchTo)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		simTok, token, err := simToken(sess.host, args[0])
		if err != nil {
			return err
		}
		decimals, symbol := simTok.Decimals, simTok.Symbol
		amounts, err := parseTokenAmountList(tokenBatchAmts, decimals)
		if err != nil {
			return err
		}

		msg := ledger.Msg{Sender: from}
		if err := sess.ldg.SendTokenBatch(context.Background(), msg, token, recipients, amounts); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Batch sent %s to %d recipients", symbol, len(recipients))))
		fmt.Println(ui.Meta("  total token sent: " + sess.ldg.TotalTokenSent().Dec() + " units"))
		return nil
	},
}

// ── named token lists ─────────────────────────────────────────────────────────

var tokenListsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage named token lists for portfolio queries",
}

var tokenListsSetCmd = &cobra.Command{
	Use:   "set <name> <addr,addr,...>",
	Short: "Create or replace a named token list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs := splitList(args[1])
		for _, a := range addrs {
			if !common.IsHexAddress(a) {
				return fmt.Errorf("invalid token address %q", a)
			}
		}
		tf, err := cfg.LoadTokens()
		if err != nil {
			return err
		}
		tf.SetList(args[0], addrs)
		if err := cfg.SaveTokens(tf); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("List %q: %d tokens", args[0], len(addrs))))
		return nil
	},
}

var tokenListsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show token lists",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := cfg.LoadTokens()
		if err != nil {
			return err
		}
		names := tf.Names()
		if len(args) == 1 {
			names = []string{args[0]}
		}
		if len(names) == 0 {
			fmt.Println(ui.Info("No token lists — create one with `w3ledger token lists set <name> <addrs>`"))
			return nil
		}
		for _, name := range names {
			addrs, ok := tf.List(name)
			if !ok {
				return fmt.Errorf("token list %q not found", name)
			}
			fmt.Println(ui.StyleTitle.Render(name))
			for _, a := range addrs {
				fmt.Println("  " + ui.Addr(a))
			}
		}
		return nil
	},
}

var tokenListsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named token list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := cfg.LoadTokens()
		if err != nil {
			return err
		}
		if err := tf.RemoveList(args[0]); err != nil {
			return err
		}
		if err := cfg.SaveTokens(tf); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed list %q", args[0])))
		return nil
	},
}

// ── helpers ───────────────────────────────────────────────────────────────────

// simToken resolves a token argument to a deployed sim ERC-20. The argument
// may be an address, an address book name, or a deployed token's symbol.
func simToken(host *chain.SimHost, arg string) (*chain.ERC20Token, common.Address, error) {
	if addr, err := resolveAccount(arg); err == nil {
		if token, ok := host.Token(addr); ok {
			return token, addr, nil
		}
		return nil, common.Address{}, fmt.Errorf("no sim token at %s — run `w3ledger token list`", addr.Hex())
	}

	for _, addr := range host.TokenAddresses() {
		token, ok := host.Token(addr)
		if ok && strings.EqualFold(token.Symbol, arg) {
			return token, addr, nil
		}
	}
	return nil, common.Address{}, fmt.Errorf("unknown token %q — run `w3ledger token list`", arg)
}

// maxApproval is the unlimited allowance sentinel.
func maxApproval() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}

func init() {
	tokenDeployCmd.Flags().StringVar(&tokenName, "name", "", "token name")
	tokenDeployCmd.Flags().StringVar(&tokenSymbol, "symbol", "", "token symbol")
	tokenDeployCmd.Flags().Uint8Var(&tokenDecimals, "decimals", 18, "token decimals")
	tokenDeployCmd.Flags().StringVar(&tokenSupply, "supply", "", "initial supply to mint")
	tokenDeployCmd.Flags().StringVar(&tokenSupplyTo, "to", "", "initial supply holder (default account if empty)")

	tokenApproveCmd.Flags().StringVar(&tokenFrom, "from", "", "token holder (address or name)")
	tokenBalanceCmd.Flags().StringVar(&portfolioRPC, "rpc", "", "endpoint name, URL, or \"best\" (default: sim)")
	tokenInfoCmd.Flags().StringVar(&portfolioRPC, "rpc", "", "endpoint name, URL, or \"best\" (default: sim)")
	tokenSendCmd.Flags().StringVar(&tokenFrom, "from", "", "caller (address or name; default account if empty)")
	tokenSendBatchCmd.Flags().StringVar(&tokenFrom, "from", "", "caller (address or name; default account if empty)")
	tokenSendBatchCmd.Flags().StringVar(&tokenBatchTo, "to", "", "comma-separated recipients")
	tokenSendBatchCmd.Flags().StringVar(&tokenBatchAmts, "amounts", "", "comma-separated token amounts, one per recipient")

	tokenListsCmd.AddCommand(tokenListsSetCmd, tokenListsShowCmd, tokenListsRemoveCmd)
	tokenCmd.AddCommand(
		tokenDeployCmd,
		tokenMintCmd,
		tokenApproveCmd,
		tokenBalanceCmd,
		tokenInfoCmd,
		tokenListCmd,
		tokenSendCmd,
		tokenSendBatchCmd,
		tokenListsCmd,
	)
}
