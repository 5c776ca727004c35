package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	ledgerFrom    string
	depositValue  string
	renounceYes   bool
	eventsLimit   int
	eventsAsJSON  bool
	ownershipFrom string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and administer the deployed ledger",
	Long: `Inspect and administer the deployed ledger.

Sub-commands:
  w3ledger ledger info                      — full state overview
  w3ledger ledger stats [account]           — per-caller counters
  w3ledger ledger deposit --value 5         — pay into the pool
  w3ledger ledger withdraw                  — owner drains the pool
  w3ledger ledger events                    — journaled event log
  w3ledger ledger transfer-ownership <new>
  w3ledger ledger renounce-ownership`,
}

var ledgerInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the ledger's full state",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		bal, err := sess.ldg.Balance(context.Background())
		if err != nil {
			return err
		}
		premium := "no"
		if sess.ldg.Premium() {
			premium = "yes"
		}
		owner := sess.ldg.Owner().Hex()
		if sess.ldg.Owner() == (common.Address{}) {
			owner = "renounced"
		}

		fmt.Println(ui.KeyValueBlock("Ledger", [][2]string{
			{"Address", ui.Addr(sess.ldg.Self().Hex())},
			{"Owner", ui.Addr(owner)},
			{"Pool balance", ethString(bal)},
			{"Label", sess.ldg.Label()},
			{"Premium", premium},
			{"Label changes", sess.ldg.TotalLabelChanges().Dec()},
			{"Native sent", ethString(sess.ldg.TotalNativeSent())},
			{"Token sent", sess.ldg.TotalTokenSent().Dec() + " units"},
		}))
		return nil
	},
}

var ledgerStatsCmd = &cobra.Command{
	Use:   "stats [account]",
	Short: "Show one caller's counters",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		account, err := resolveAccount(arg)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		fmt.Println(ui.KeyValueBlock("Caller "+ui.TruncateAddr(account.Hex()), [][2]string{
			{"Label changes", sess.ldg.LabelChangesBy(account).Dec()},
			{"Native sent", ethString(sess.ldg.NativeSentBy(account))},
			{"Token sent", sess.ldg.TokenSentBy(account).Dec() + " units"},
		}))
		return nil
	},
}

var ledgerDepositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Pay native value into the ledger's pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(ledgerFrom)
		if err != nil {
			return err
		}
		value, err := parseEthAmount(depositValue)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		msg := ledger.Msg{Sender: from, Value: value}
		if err := sess.ldg.Receive(context.Background(), msg); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		bal, err := sess.ldg.Balance(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("Deposited " + ethString(value)))
		fmt.Println(ui.Meta("  pool balance: " + ethString(bal)))
		return nil
	},
}

var ledgerWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Drain the ledger's pool to the owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(ledgerFrom)
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		bal, err := sess.ldg.Balance(context.Background())
		if err != nil {
			return err
		}

		msg := ledger.Msg{Sender: from}
		if err := sess.ldg.Withdraw(context.Background(), msg); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		if bal.IsZero() {
			fmt.Println(ui.Info("Pool was empty — nothing to withdraw"))
			return nil
		}
		fmt.Println(ui.Success("Withdrew " + ethString(bal) + " to " + sess.ldg.Owner().Hex()))
		return nil
	},
}

var ledgerEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List journaled ledger events",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		records, err := sess.jnl.Events(eventsLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println(ui.Info("No events journaled yet"))
			return nil
		}

		if eventsAsJSON {
			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		table := ui.NewTable([]ui.Column{
			{Title: "SEQ", Width: 6},
			{Title: "AT", Width: 20},
			{Title: "EVENT", Width: 22},
			{Title: "PAYLOAD", Width: 60},
		})
		for _, r := range records {
			table.AddRow(ui.Row{
				fmt.Sprintf("%d", r.Seq),
				r.At.Format("2006-01-02 15:04:05"),
				r.Name,
				string(r.Payload),
			})
		}
		fmt.Println(table.Render())
		return nil
	},
}

var ledgerTransferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership <new-owner>",
	Short: "Hand the ledger to a new owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(ownershipFrom)
		if err != nil {
			return err
		}
		newOwner, err := resolveAccount(args[0])
		if err != nil {
			return err
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		if err := sess.ldg.TransferOwnership(ledger.Msg{Sender: from}, newOwner); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		fmt.Println(ui.Success("Ownership transferred to " + newOwner.Hex()))
		return nil
	},
}

var ledgerRenounceOwnershipCmd = &cobra.Command{
	Use:   "renounce-ownership",
	Short: "Permanently give up owner-only operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := resolveAccount(ownershipFrom)
		if err != nil {
			return err
		}

		if !renounceYes && !ui.ConfirmDanger("Renouncing is permanent: withdraw and ownership transfer stop working. Continue?") {
			fmt.Println(ui.Info("Aborted"))
			return nil
		}

		sess, err := openSession()
		if err != nil {
			return err
		}
		defer sess.close()

		if err := sess.ldg.RenounceOwnership(ledger.Msg{Sender: from}); err != nil {
			return err
		}
		if err := sess.save(); err != nil {
			return err
		}

		fmt.Println(ui.Success("Ownership renounced"))
		return nil
	},
}

func init() {
	ledgerDepositCmd.Flags().StringVar(&ledgerFrom, "from", "", "caller (address or name; default account if empty)")
	ledgerDepositCmd.Flags().StringVar(&depositValue, "value", "0", "native value to deposit (ETH)")
	ledgerWithdrawCmd.Flags().StringVar(&ledgerFrom, "from", "", "caller (must be the owner)")
	ledgerEventsCmd.Flags().IntVar(&eventsLimit, "limit", 25, "most recent events to show (0 = all)")
	ledgerEventsCmd.Flags().BoolVar(&eventsAsJSON, "json", false, "print raw JSON records")
	ledgerTransferOwnershipCmd.Flags().StringVar(&ownershipFrom, "from", "", "caller (must be the owner)")
	ledgerRenounceOwnershipCmd.Flags().StringVar(&ownershipFrom, "from", "", "caller (must be the owner)")
	ledgerRenounceOwnershipCmd.Flags().BoolVar(&renounceYes, "yes", false, "skip the confirmation prompt")

	ledgerCmd.AddCommand(
		ledgerInfoCmd,
		ledgerStatsCmd,
		ledgerDepositCmd,
		ledgerWithdrawCmd,
		ledgerEventsCmd,
		ledgerTransferOwnershipCmd,
		ledgerRenounceOwnershipCmd,
	)
}
