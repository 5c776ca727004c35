package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/journal"
	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/spf13/cobra"
)

var (
	initOwner string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Deploy the ledger on the local sim chain",
	Long: `Deploy a fresh distribution ledger on the persistent sim chain.

The owner may later withdraw the ledger's pooled balance, transfer
ownership, or renounce it. Everything lives under the config directory
(default: ~/.w3ledger) and survives across invocations.

Examples:
  w3ledger init --owner 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
  w3ledger init --owner alice            # address book name
  w3ledger init --owner alice --force    # redeploy, wiping ledger state`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initOwner == "" {
			return fmt.Errorf("--owner is required")
		}
		owner, err := resolveAccount(initOwner)
		if err != nil {
			return err
		}

		jnl, host, err := openChain()
		if err != nil {
			return err
		}
		defer jnl.Close() //nolint:errcheck

		var existing ledger.State
		switch err := jnl.LoadState(journal.StateLedger, &existing); {
		case err == nil && !initForce:
			return fmt.Errorf("ledger already deployed (owner %s) — use --force to redeploy", existing.Owner.Hex())
		case err != nil && !errors.Is(err, journal.ErrNoSnapshot):
			return fmt.Errorf("checking for existing ledger: %w", err)
		}

		ldg, err := ledger.New(host, owner, ledger.WithSink(jnl.Sink()))
		if err != nil {
			return err
		}
		if err := jnl.SaveState(journal.StateLedger, ldg.State()); err != nil {
			return fmt.Errorf("saving ledger state: %w", err)
		}
		if err := saveChain(jnl, host); err != nil {
			return err
		}

		fmt.Println(ui.Banner())
		fmt.Println(ui.KeyValueBlock("Ledger Deployed", [][2]string{
			{"Address", ui.Addr(ldg.Self().Hex())},
			{"Owner", ui.Addr(owner.Hex())},
			{"Label", ldg.Label()},
			{"Data dir", cfg.Dir()},
		}))
		fmt.Println(ui.Hint("Fund a caller with `w3ledger fund <account> <eth>`, then try `w3ledger label set`."))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initOwner, "owner", "", "initial owner (address or address book name)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "redeploy even if a ledger exists, wiping its state")
}
