package cmd

import (
	"math/big"

	"github.com/Mohsinsiddi/donutxpress/internal/ui"
	"github.com/Mohsinsiddi/donutxpress/internal/vending"
	"github.com/spf13/cobra"
)

var (
	machineRestock       bool
	machineRestockAmount int64
)

var machineCmd = &cobra.Command{
	Use:     "machine",
	Aliases: []string{"ui"},
	Short:   "Open the interactive vending machine page",
	Long: `Open the Donut Xpress page.

Keys:
  c        connect the wallet
  0-9      type how many donuts to buy
  Enter    buy
  r        re-read inventory and your donuts
  s        restock (only with --restock; owner only)
  Esc      dismiss the last notice
  q        quit`,
	Args: cobra.NoArgs,
	RunE: runMachine,
}

func runMachine(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	feed := ui.NewStateFeed()
	m, n, err := newMachine(true, vending.WithObserver(feed.Observe))
	if err != nil {
		return err
	}
	defer m.Close()

	page := ui.NewVendingModel(ctx, m, feed, ui.VendingOptions{
		Network:       n.DisplayName,
		AllowRestock:  machineRestock,
		RestockAmount: big.NewInt(machineRestockAmount),
	})
	return ui.RunVending(page)
}

func init() {
	for _, c := range []*cobra.Command{machineCmd, rootCmd} {
		c.Flags().BoolVar(&machineRestock, "restock", false, "enable the restock key (owner only)")
		c.Flags().Int64Var(&machineRestockAmount, "restock-amount", 2, "donuts added per restock")
	}
}
