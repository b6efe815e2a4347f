package cmd

import (
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/donutxpress/internal/contract"
	"github.com/Mohsinsiddi/donutxpress/internal/ui"
	"github.com/Mohsinsiddi/donutxpress/internal/vending"
	"github.com/Mohsinsiddi/donutxpress/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Show how many donuts the machine holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		h, closeFn, n, err := readHandle(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		inv, err := h.Inventory(ctx)
		if err != nil {
			return fmt.Errorf("reading inventory: %w", err)
		}
		fmt.Printf("Vending machine inventory: %s  %s\n", ui.Val(inv.String()), ui.Meta(n.DisplayName))
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Show how many donuts an address owns (default: your wallet)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		account, err := balanceAccount(args)
		if err != nil {
			return err
		}

		h, closeFn, _, err := readHandle(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		bal, err := h.BalanceOf(ctx, account)
		if err != nil {
			return fmt.Errorf("reading balance: %w", err)
		}
		fmt.Printf("%s owns %s donuts\n", ui.Addr(account.Hex()), ui.Val(bal.String()))
		return nil
	},
}

// balanceAccount is the address argument, else the selected wallet's
// address. Watch-only wallets are fine here.
func balanceAccount(args []string) (common.Address, error) {
	if len(args) == 1 {
		if !common.IsHexAddress(args[0]) {
			return common.Address{}, fmt.Errorf("invalid address %q", args[0])
		}
		return common.HexToAddress(args[0]), nil
	}

	mgr, err := newWalletManager()
	if err != nil {
		return common.Address{}, err
	}
	var w *wallet.Wallet
	if name := selectedWallet(); name != "" {
		w, err = mgr.Get(name)
	} else {
		w, err = mgr.Default()
	}
	if err != nil {
		return common.Address{}, err
	}
	if w == nil {
		return common.Address{}, fmt.Errorf("no wallet found: pass an address or run `donutx wallet add`")
	}
	accounts := w.Accounts()
	if len(accounts) == 0 {
		return common.Address{}, fmt.Errorf("wallet %q has no valid address", w.Name)
	}
	return accounts[0], nil
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Show the machine owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		h, closeFn, _, err := readHandle(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		owner, err := h.Owner(ctx)
		if err != nil {
			return fmt.Errorf("reading owner: %w", err)
		}
		fmt.Println(ui.Addr(owner.Hex()))
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the vending machine contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		h, closeFn, n, err := readHandle(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		addr := h.Address().Hex()
		pairs := [][2]string{
			{"Network", fmt.Sprintf("%s (%d)", n.DisplayName, n.ChainID)},
			{"Contract", addr},
			{"Unit price", vending.UnitPrice.String() + " ETH"},
		}
		if link := n.AddressURL(addr); link != "" {
			pairs = append(pairs, [2]string{"Explorer", link})
		}
		if owner, err := h.Owner(ctx); err == nil {
			pairs = append(pairs, [2]string{"Owner", owner.Hex()})
		} else {
			pairs = append(pairs, [2]string{"Owner", ui.TrimErr(err.Error())})
		}
		if inv, err := h.Inventory(ctx); err == nil {
			pairs = append(pairs, [2]string{"Inventory", inv.String()})
		}
		fmt.Println(ui.KeyValueBlock("Donut Xpress", pairs))
		fmt.Println()
		fmt.Println(functionTable(h.Descriptor().Functions))
		return nil
	},
}

func functionTable(fns []contract.Function) string {
	t := ui.NewTable([]ui.Column{
		{Title: "Function", Width: 28},
		{Title: "Selector", Width: 12},
		{Title: "Mutability", Width: 12},
		{Title: "Returns", Width: 10},
	})
	for _, f := range fns {
		mut := ui.Meta(string(f.Mutability))
		if f.IsPayable() {
			mut = ui.StyleWarning.Render(string(f.Mutability))
		}
		returns := "-"
		if len(f.Outputs) > 0 {
			returns = f.Outputs[0]
		}
		t.AddRow(ui.Row{ui.Val(f.Signature()), ui.Addr(f.Selector()), mut, returns})
	}
	return t.Render()
}

func counterText(n *big.Int) string {
	if n == nil {
		return "?"
	}
	return n.String()
}
