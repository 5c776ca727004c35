package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the named address book",
	Long: `Manage the watch-only address book.

Named entries can be used anywhere a command takes an address: --from,
--owner, recipients, portfolio subjects. w3ledger never holds keys.

Sub-commands:
  w3ledger account add <name> <address>
  w3ledger account list
  w3ledger account use <name>      — make it the default --from
  w3ledger account remove <name>`,
}

var accountAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Add a named address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := addressBook().Add(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added %s → %s", a.Name, a.Address.Hex())))
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all named addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		book := addressBook()
		all := book.List()
		if len(all) == 0 {
			fmt.Println(ui.Info("Address book is empty — add one with `w3ledger account add <name> <address>`"))
			return nil
		}

		table := ui.NewTable([]ui.Column{
			{Title: "NAME", Width: 16},
			{Title: "ADDRESS", Width: 44},
			{Title: "DEFAULT", Width: 8},
		})
		for _, a := range all {
			def := ""
			if a.IsDefault {
				def = "✓"
			}
			table.AddRow(ui.Row{a.Name, a.Address.Hex(), def})
		}
		fmt.Println(table.Render())
		return nil
	},
}

var accountUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book := addressBook()
		if err := book.SetDefault(args[0]); err != nil {
			return err
		}
		cfg.DefaultAccount = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default account set to %q", args[0])))
		return nil
	},
}

var accountRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := addressBook().Remove(args[0]); err != nil {
			return err
		}
		if cfg.DefaultAccount == args[0] {
			cfg.DefaultAccount = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed %q", args[0])))
		return nil
	},
}

func init() {
	accountCmd.AddCommand(accountAddCmd, accountListCmd, accountUseCmd, accountRemoveCmd)
}
