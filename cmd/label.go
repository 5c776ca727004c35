package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/spf13/cobra"
)

var (
	labelFrom  string
	labelValue string
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Read and set the ledger's label",
	Long: `Read and set the ledger's label.

Setting the label is open to anyone and counts against the caller.
Attaching value is kept by the ledger and marks the label premium.

Examples:
  w3ledger label show
  w3ledger label set "gm world" --from alice
  w3ledger label set "gm world" --from alice --value 0.5`,
}

var labelShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current label",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		premium := "no"
		if sess.ldg.Premium() {
			premium = "yes"
		}
		fmt.Println(ui.KeyValueBlock("Label", [][2]string{
			{"Label", ui.Val(sess.ldg.Label())},
			{"Premium", premium},
			{"Total changes", sess.ldg.TotalLabelChanges().Dec()},
		}))
		return nil
	},
}

var labelSetCmd = &cobra.Command{
	Use:   "set <text>",
	Short: "Set the label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(labelFrom)
		if err != nil {
			return err
		}
		value, err := parseEthAmount(labelValue)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		msg := ledger.Msg{Sender: from, Value: value}
		if err := sess.ldg.SetLabel(context.Background(), msg, args[0]); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Label set to %q", args[0])))
		if sess.ldg.Premium() {
			fmt.Println(ui.Meta("  premium: paid " + ethString(value)))
		}
		fmt.Println(ui.Meta(fmt.Sprintf("  changes by %s: %s", ui.TruncateAddr(from.Hex()), sess.ldg.LabelChangesBy(from).Dec())))
		return nil
	},
}

func init() {
	labelSetCmd.Flags().StringVar(&labelFrom, "from", "", "caller (address or name; default account if empty)")
	labelSetCmd.Flags().StringVar(&labelValue, "value", "0", "native value to attach (ETH)")
	labelCmd.AddCommand(labelShowCmd, labelSetCmd)
}
