package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var fundCmd = &cobra.Command{
	Use:   "fund <account> <amount>",
	Short: "Credit native balance on the sim chain",
	Long: `Credit native currency to an account on the local sim chain — the dev
faucet. Amounts are ETH decimals (or wei:<raw>).

Examples:
  w3ledger fund alice 100
  w3ledger fund 0xf39F...2266 wei:1000000000000000000`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		amount, err := parseEthAmount(args[1])
		if err != nil {
			return err
		}

		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		current, err := host.NativeBalance(context.Background(), account)
		if err != nil {
			return err
		}
		next, overflow := new(uint256.Int).AddOverflow(current, amount)
		if overflow {
			return fmt.Errorf("balance overflow")
		}
		host.SetBalance(account, next)

		if err := saveChain(jnl, host); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Funded %s", account.Hex())))
		fmt.Println(ui.Meta("  balance: " + ethString(next)))
		return nil
	},
}
