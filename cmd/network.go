package cmd

import (
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/donutxpress/internal/chain"
	"github.com/Mohsinsiddi/donutxpress/internal/rpc"
	"github.com/Mohsinsiddi/donutxpress/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List and probe networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 10},
			{Title: "Display", Width: 12},
			{Title: "Chain ID", Width: 10},
			{Title: "RPCs", Width: 5},
			{Title: "Testnet", Width: 8},
			{Title: "Active", Width: 6},
		})

		active := cfg.Network
		if networkFlag != "" {
			active = networkFlag
		}
		for _, n := range reg.All() {
			testnet, mark := "", ""
			if n.Testnet {
				testnet = "yes"
			}
			if n.Name == active {
				mark = ui.StyleSuccess.Render("✓")
			}
			rpcs := n.Endpoints(cfg.GetRPCs(n.Name))
			t.AddRow(ui.Row{
				ui.ChainName(n.Name),
				n.DisplayName,
				strconv.FormatInt(n.ChainID, 10),
				strconv.Itoa(len(rpcs)),
				testnet,
				mark,
			})
		}

		fmt.Println(t.Render())
		fmt.Println(ui.Hint("Switch with: donutx config set network <name>"))
		return nil
	},
}

var networkPingCmd = &cobra.Command{
	Use:   "ping [network]",
	Short: "Probe every RPC of a network and show which one would be picked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		var (
			n   *chain.Network
			err error
		)
		if len(args) == 1 {
			n, err = chain.NewRegistry().GetByName(args[0])
			if err != nil {
				return fmt.Errorf("unknown network %q: run `donutx network list` to see all networks", args[0])
			}
		} else if n, err = activeNetwork(); err != nil {
			return err
		}

		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", ui.StyleTitle.Render(fmt.Sprintf("Probing %s RPCs...", n.DisplayName)))

		probes := rpc.ProbeAll(ctx, n.Endpoints(cfg.GetRPCs(n.Name)))
		winner, pickErr := rpc.Pick(algo, probes)

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 44},
			{Title: "Latency", Width: 10},
			{Title: "Block #", Width: 12},
			{Title: "Status", Width: 32},
		})
		for _, p := range probes {
			status := ui.Success("healthy")
			latency := fmt.Sprintf("%dms", p.Latency.Milliseconds())
			block := strconv.FormatUint(p.BlockNumber, 10)

			switch {
			case !p.Healthy():
				status = ui.Err(ui.TrimErr(p.Err.Error()))
				latency, block = "-", "-"
			case n.Verify(ctx, p.URL) != nil:
				status = ui.Warn("wrong chain")
			}
			if pickErr == nil && p.URL == winner.URL {
				status += " " + ui.StyleSelected.Render(string(algo))
			}
			t.AddRow(ui.Row{p.URL, latency, block, status})
		}
		fmt.Println(t.Render())

		return pickErr
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkPingCmd)
}
