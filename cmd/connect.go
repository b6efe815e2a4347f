package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/donutxpress/internal/ui"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the wallet and show your donuts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		m, n, err := connectMachine(ctx)
		if err != nil {
			return err
		}
		defer m.Close()

		s := m.Session()
		st := m.State()
		fmt.Println(ui.Banner())
		if st.Notice != nil {
			fmt.Println(ui.Success(st.Notice.Title + " " + st.Notice.Body))
		}
		fmt.Println(ui.KeyValueBlock("Connected", [][2]string{
			{"Wallet", s.Wallet.Name},
			{"Account", s.Account.Hex()},
			{"Network", fmt.Sprintf("%s (%s)", n.DisplayName, s.ChainID)},
			{"RPC", s.RPCURL},
			{"Machine inventory", counterText(st.Inventory)},
			{"My donuts", counterText(st.Balance)},
		}))
		if st.Inventory == nil || st.Balance == nil {
			fmt.Println(ui.Warn("Could not read from the vending machine; run with --verbose for details"))
		}
		return nil
	},
}
