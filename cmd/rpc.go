package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3ledger/internal/config"
	"github.com/Mohsinsiddi/w3ledger/internal/rpc"
	"github.com/Mohsinsiddi/w3ledger/internal/ui"
	"github.com/spf13/cobra"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage JSON-RPC endpoints for live queries",
	Long: `Manage the named JSON-RPC endpoints that portfolio queries can run
against instead of the local sim.

Sub-commands:
  w3ledger rpc add <name> <url>
  w3ledger rpc remove <name>
  w3ledger rpc list
  w3ledger rpc use <name>     — default endpoint for --rpc
  w3ledger rpc best           — benchmark all endpoints, show the winner`,
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Register a named endpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.AddEndpoint(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Endpoint %q → %s", args[0], args[1])))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a named endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveEndpoint(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed endpoint %q", args[0])))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := cfg.EndpointNames()
		if len(names) == 0 {
			fmt.Println(ui.Info("No endpoints registered — add one with `w3ledger rpc add <name> <url>`"))
			return nil
		}

		table := ui.NewTable([]ui.Column{
			{Title: "NAME", Width: 14},
			{Title: "URL", Width: 52},
			{Title: "DEFAULT", Width: 8},
		})
		for _, name := range names {
			def := ""
			if name == cfg.DefaultRPC {
				def = "✓"
			}
			table.AddRow(ui.Row{name, cfg.RPCEndpoints[name], def})
		}
		fmt.Println(table.Render())
		return nil
	},
}

var rpcUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := cfg.Endpoint(args[0]); !ok {
			return fmt.Errorf("unknown endpoint %q — run `w3ledger rpc list`", args[0])
		}
		cfg.DefaultRPC = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default endpoint set to %q", args[0])))
		return nil
	},
}

var rpcBestCmd = &cobra.Command{
	Use:   "best",
	Short: "Benchmark all endpoints and show the winner",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := cfg.EndpointNames()
		if len(names) == 0 {
			return fmt.Errorf("no endpoints registered — add one with `w3ledger rpc add <name> <url>`")
		}
		urls := make([]string, 0, len(names))
		for _, name := range names {
			urls = append(urls, cfg.RPCEndpoints[name])
		}

		spin := ui.NewSpinner(fmt.Sprintf("Benchmarking %d endpoints...", len(urls)))
		spin.Start()
		ctx, cancel := context.WithTimeout(context.Background(), config.RPCProbeTimeout)
		defer cancel()
		results := rpc.Benchmark(ctx, urls)
		spin.Stop()

		table := ui.NewTable([]ui.Column{
			{Title: "NAME", Width: 14},
			{Title: "LATENCY", Width: 12},
			{Title: "BLOCK", Width: 12},
			{Title: "STATUS", Width: 24},
		})
		for i, r := range results {
			status := "ok"
			block := fmt.Sprintf("%d", r.BlockNumber)
			if r.Err != nil {
				status = r.Err.Error()
				block = "—"
			}
			table.AddRow(ui.Row{names[i], r.Latency.String(), block, status})
		}
		fmt.Println(table.Render())

		picker := rpc.NewPicker(rpc.Algorithm(cfg.RPCAlgorithm))
		winner, err := picker.Pick(rpc.ResultsToEndpoints(results))
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("Best endpoint: " + winner.URL))
		return nil
	},
}

func init() {
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcUseCmd, rpcBestCmd)
}
