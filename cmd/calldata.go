package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3ledger/internal/abi"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/Mohsinsiddi/w3ledger/internal/units"
)

var calldataDecimals uint8

var calldataCmd = &cobra.Command{
	Use:   "calldata",
	Short: "Inspect ERC-20 calldata encodings",
	Long: `Build and annotate the calldata this tool sends on-chain, for
debugging against other ABI tooling or a block explorer.`,
}

var calldataTransferFromCmd = &cobra.Command{
	Use:   "transfer-from <from> <to> <amount>",
	Short: "Encode a transferFrom call and annotate its layout",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		to, err := resolveAccount(args[1])
		if err != nil {
			return err
		}
		amount, err := parseTokenAmount(args[2], calldataDecimals)
		if err != nil {
			return err
		}

		data := abi.PackTransferFrom(from, to, amount)

		fmt.Println(ui.KeyValueBlock("transferFrom(address,address,uint256)", [][2]string{
			{"selector", "0x" + hex.EncodeToString(data[:4])},
			{"from", "0x" + hex.EncodeToString(data[4:36]) + "  " + ui.Meta(from.Hex())},
			{"to", "0x" + hex.EncodeToString(data[36:68]) + "  " + ui.Meta(to.Hex())},
			{"amount", "0x" + hex.EncodeToString(data[68:100]) + "  " + ui.Meta(units.FormatUnits(amount, calldataDecimals))},
			{"bytes", fmt.Sprintf("%d", len(data))},
		}))
		fmt.Println()
		fmt.Println(ui.Meta("calldata") + "  0x" + hex.EncodeToString(data))
		return nil
	},
}

var calldataSelectorCmd = &cobra.Command{
	Use:   "selector <signature>",
	Short: "Compute a 4-byte function selector",
	Long: `Compute the selector for a canonical function signature, e.g.
"transferFrom(address,address,uint256)". No parameter names, no spaces.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.KeyValueBlock("Selector", [][2]string{
			{"signature", args[0]},
			{"selector", abi.SelectorHex(args[0])},
		}))
		return nil
	},
}

func init() {
	calldataTransferFromCmd.Flags().Uint8Var(&calldataDecimals, "decimals", 18, "decimal scale for the amount")
	calldataCmd.AddCommand(calldataTransferFromCmd, calldataSelectorCmd)
}
