package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3ledger/internal/config"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3ledger/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir  string
	cfg     *config.Config
	verbose bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3ledger",
	Short: "The On-Chain Ledger CLI",
	Long: `w3ledger — distribution ledger and portfolio aggregator for EVM chains.

  Run a persistent simulated ledger: set its label, pool native currency,
  pay it out in single or batched sends, and route ERC-20 transfers on
  behalf of approved callers. Scan any account's token portfolio against
  the sim or a live JSON-RPC endpoint.

Start with: w3ledger init --owner <address>`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// W3LEDGER_CONFIG_DIR seeds the --config default; an explicit flag wins.
	if envDir := os.Getenv("W3LEDGER_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3ledger)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Register all sub-commands.
	rootCmd.AddCommand(
		initCmd,
		accountCmd,
		configCmd,
		rpcCmd,
		fundCmd,
		labelCmd,
		ledgerCmd,
		sendCmd,
		tokenCmd,
		portfolioCmd,
		calldataCmd,
		serveCmd,
	)
}
