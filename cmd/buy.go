package cmd

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/Mohsinsiddi/donutxpress/internal/chain"
	"github.com/Mohsinsiddi/donutxpress/internal/ui"
	"github.com/Mohsinsiddi/donutxpress/internal/vending"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
)

var (
	buyYes        bool
	restockYes    bool
	restockDryRun bool
)

var buyCmd = &cobra.Command{
	Use:   "buy <quantity>",
	Short: "Buy donuts at 0.0001 ETH each",
	Long: `Buy donuts from the vending machine.

The quantity is read the way the page reads it: leading digits count and
anything after them is ignored, so "3 please" buys 3 and "abc" buys 0.

Example:
  donutx buy 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		quantity := vending.ParseQuantity(args[0])
		if quantity.Sign() < 0 {
			return fmt.Errorf("quantity must not be negative, got %q", args[0])
		}
		value := vending.PaymentWei(quantity)

		m, n, err := connectMachine(ctx)
		if err != nil {
			return err
		}
		defer m.Close()

		fmt.Println(ui.KeyValueBlock("Purchase", [][2]string{
			{"Quantity", quantity.String()},
			{"Unit price", vending.UnitPrice.String() + " ETH"},
			{"Total", vending.FormatEther(value) + " ETH"},
			{"From", m.Session().Account.Hex()},
			{"Machine", cfg.ContractAddress},
			{"Network", n.DisplayName},
			{"Gas limit", strconv.FormatUint(cfg.GasLimit, 10)},
		}))
		if !buyYes && !ui.Confirm("Send this purchase?") {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		m.SetQuantity(args[0])
		spin := ui.NewSpinner("Transaction in process")
		spin.Start()
		res := m.SubmitPurchase(ctx)
		spin.Stop()

		printNotice(m.State())
		if !res.OK() {
			return res.Err()
		}
		printReceipt(n, res.Value)
		printCounters(m.State())
		return nil
	},
}

var restockCmd = &cobra.Command{
	Use:   "restock <amount>",
	Short: "Add donuts to the machine (owner only)",
	Long: `Send a restock transaction. The contract only accepts it from the owner.

--dry-run evaluates the call with eth_call instead; nothing is broadcast.

Examples:
  donutx restock 2
  donutx restock 50 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		amount, ok := new(big.Int).SetString(args[0], 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("amount must be a positive integer, got %q", args[0])
		}

		m, n, err := connectMachine(ctx)
		if err != nil {
			return err
		}
		defer m.Close()

		if restockDryRun {
			if res := m.RestockDryRun(ctx, amount); !res.OK() {
				fmt.Println(ui.Err("restock would fail: " + ui.TrimErr(res.Failure.Detail.Error())))
				return res.Err()
			}
			fmt.Println(ui.Success(fmt.Sprintf("restock(%s) would succeed from %s", amount, m.Session().Account.Hex())))
			return nil
		}

		if !restockYes && !ui.Confirm(fmt.Sprintf("Restock %s donuts on %s?", amount, n.DisplayName)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		spin := ui.NewSpinner("Transaction in process")
		spin.Start()
		res := m.Restock(ctx, amount)
		spin.Stop()

		printNotice(m.State())
		if !res.OK() {
			return res.Err()
		}
		printReceipt(n, res.Value)
		printCounters(m.State())
		return nil
	},
}

func printNotice(st vending.ViewState) {
	n := st.Notice
	if n == nil {
		return
	}
	if n.Level == vending.LevelError {
		fmt.Println(ui.Err(n.Title + " " + n.Body))
		return
	}
	fmt.Println(ui.Success(n.Title + " " + n.Body))
}

func printReceipt(n *chain.Network, r *types.Receipt) {
	if r == nil {
		return
	}
	hash := r.TxHash.Hex()
	fmt.Printf("  %s  %s\n", ui.Meta("Tx      :"), ui.Addr(hash))
	fmt.Printf("  %s  %s\n", ui.Meta("Block   :"), ui.Val(r.BlockNumber.String()))
	fmt.Printf("  %s  %s\n", ui.Meta("Gas used:"), ui.Val(strconv.FormatUint(r.GasUsed, 10)))
	if link := n.TxURL(hash); link != "" {
		fmt.Println(ui.Hint(link))
	}
}

func printCounters(st vending.ViewState) {
	fmt.Printf("\nVending machine inventory: %s\n", ui.Val(counterText(st.Inventory)))
	fmt.Printf("My donuts: %s\n", ui.Val(counterText(st.Balance)))
}

func init() {
	buyCmd.Flags().BoolVarP(&buyYes, "yes", "y", false, "skip the confirmation prompt")
	restockCmd.Flags().BoolVarP(&restockYes, "yes", "y", false, "skip the confirmation prompt")
	restockCmd.Flags().BoolVar(&restockDryRun, "dry-run", false, "simulate with eth_call, send nothing")
}
