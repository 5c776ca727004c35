package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetServeAddrCmd = &cobra.Command{
	Use:   "set-serve-addr <addr>",
	Short: "Set the `w3ledger serve` listen address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.ServeAddr = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Serve address set to %q", args[0])))
		return nil
	},
}

var configSetAlgorithmCmd = &cobra.Command{
	Use:   "set-rpc-algorithm <fastest|round-robin|failover>",
	Short: "Set the RPC endpoint selection algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "fastest", "round-robin", "failover":
		default:
			return fmt.Errorf("unknown algorithm %q", args[0])
		}
		cfg.RPCAlgorithm = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC algorithm set to %q", args[0])))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configSetServeAddrCmd, configSetAlgorithmCmd)
}
