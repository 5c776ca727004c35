package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/spf13/cobra"
)

var (
	sendFrom       string
	sendValue      string
	sendBatchTo    string
	sendBatchAmts  string
	sendBatchFrom  string
	sendBatchValue string
)

var sendCmd = &cobra.Command{
	Use:   "send <recipient> <amount>",
	Short: "Pay native currency out of the ledger's pool",
	Long: `Pay native currency out of the ledger's pool to one recipient.

The pool funds the transfer; attach --value to top it up in the same
call. Amounts are ETH decimals (or wei:<raw>).

Examples:
  w3ledger send bob 1.5 --from alice
  w3ledger send 0xdead...beef 2 --from alice --value 2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(sendFrom)
		if err != nil {
			return err
		}
		to, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		amount, err := parseEthAmount(args[1])
		if err != nil {
			return err
		}
		value, err := parseEthAmount(sendValue)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		msg := ledger.Msg{Sender: from, Value: value}
		if err := sess.ldg.SendNative(context.Background(), msg, to, amount); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		fmt.Println(ui.Success("Sent " + ethString(amount) + " to " + to.Hex()))
		fmt.Println(ui.Meta("  total native sent: " + ethString(sess.ldg.TotalNativeSent())))
		return nil
	},
}

var sendBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Pay native currency to many recipients at once",
	Long: `Pay native currency to many recipients in one atomic batch.

--to and --amounts are parallel comma-separated lists and must be the
same length. One aggregate counter update and one event cover the whole
batch; any failed transfer rolls everything back.

Examples:
  w3ledger send batch --to bob,carol --amounts 1,2 --from alice
  w3ledger send batch --to bob,carol --amounts 1,2 --from alice --value 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(sendBatchFrom)
		if err != nil {
			return err
		}
		recipients, err := parseAddrList(sendBatchTo)
		if err != nil {
			return err
		}
		amounts, err := parseEthList(sendBatchAmts)
		if err != nil {
			return err
		}
		value, err := parseEthAmount(sendBatchValue)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		msg := ledger.Msg{Sender: from, Value: value}
		if err := sess.ldg.SendNativeBatch(context.Background(), msg, recipients, amounts); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Batch sent to %d recipients", len(recipients))))
		fmt.Println(ui.Meta("  total native sent: " + ethString(sess.ldg.TotalNativeSent())))
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendFrom, "from", "", "caller (address or name; default account if empty)")
	sendCmd.Flags().StringVar(&sendValue, "value", "0", "native value to attach (ETH)")
	sendBatchCmd.Flags().StringVar(&sendBatchTo, "to", "", "comma-separated recipients")
	sendBatchCmd.Flags().StringVar(&sendBatchAmts, "amounts", "", "comma-separated ETH amounts, one per recipient")
	sendBatchCmd.Flags().StringVar(&sendBatchFrom, "from", "", "caller (address or name; default account if empty)")
	sendBatchCmd.Flags().StringVar(&sendBatchValue, "value", "0", "native value to attach (ETH)")
	sendCmd.AddCommand(sendBatchCmd)
}
