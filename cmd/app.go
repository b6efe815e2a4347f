package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/donutxpress/internal/chain"
	"github.com/Mohsinsiddi/donutxpress/internal/contract"
	"github.com/Mohsinsiddi/donutxpress/internal/rpc"
	"github.com/Mohsinsiddi/donutxpress/internal/ui"
	"github.com/Mohsinsiddi/donutxpress/internal/vending"
	"github.com/Mohsinsiddi/donutxpress/internal/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Swapped in tests.
var (
	openKeyStore = func(dir string) (wallet.KeyStore, error) { return wallet.OpenKeystore(dir) }
	dialRPC      = wallet.DialRPC
)

// commandContext derives the context for one command, applying --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// activeNetwork returns --network, else the configured network.
func activeNetwork() (*chain.Network, error) {
	name := cfg.Network
	if networkFlag != "" {
		name = networkFlag
	}
	n, err := chain.NewRegistry().GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown network %q: run `donutx network list` to see all networks", name)
	}
	return n, nil
}

// resolveRPC returns --rpc, or picks one of the network's endpoints with the
// configured algorithm. The spinner is off while the interactive page owns
// the terminal.
func resolveRPC(ctx context.Context, n *chain.Network, spinner bool) (string, error) {
	if rpcFlag != "" {
		return rpcFlag, nil
	}
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return "", err
	}

	urls := n.Endpoints(cfg.GetRPCs(n.Name))
	var spin *ui.Spinner
	if spinner && len(urls) > 1 {
		spin = ui.NewSpinner(fmt.Sprintf("Picking a %s RPC...", n.DisplayName))
		spin.Start()
	}
	url, err := rpc.Select(ctx, urls, algo, logger)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", n.DisplayName, err)
	}
	logger.Info("rpc resolved", zap.String("network", n.Name), zap.String("url", url))
	return url, nil
}

func vendingDescriptor() (*contract.Descriptor, error) {
	return contract.Vending().WithAddress(cfg.ContractAddress)
}

func newWalletManager() (*wallet.Manager, error) {
	ks, err := openKeyStore(cfg.Dir())
	if err != nil {
		return nil, err
	}
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeyStore(ks),
	), nil
}

// selectedWallet is --wallet, else the configured default. Empty lets the
// manager pick its default.
func selectedWallet() string {
	if walletFlag != "" {
		return walletFlag
	}
	return cfg.DefaultWallet
}

// newMachine wires a vending machine for the active network. Endpoints are
// probed only once a wallet has been unlocked. The caller owns Close.
func newMachine(interactive bool, extra ...vending.Option) (*vending.Machine, *chain.Network, error) {
	n, err := activeNetwork()
	if err != nil {
		return nil, nil, err
	}
	desc, err := vendingDescriptor()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := newWalletManager()
	if err != nil {
		return nil, nil, err
	}

	opts := []vending.Option{
		vending.WithWallet(selectedWallet()),
		vending.WithDescriptor(desc),
		vending.WithGasLimit(cfg.GasLimit),
		vending.WithPollInterval(time.Duration(cfg.ReceiptPollSeconds) * time.Second),
		vending.WithLogger(logger.With(zap.String("network", n.Name))),
	}
	conn := wallet.NewConnector(mgr)
	conn.Dial = dialRPC
	conn.Endpoint = func(ctx context.Context) (string, error) { return resolveRPC(ctx, n, !interactive) }
	return vending.New(conn, append(opts, extra...)...), n, nil
}

// connectMachine builds a machine and connects it, printing the failure
// notice when the wallet cannot be reached.
func connectMachine(ctx context.Context) (*vending.Machine, *chain.Network, error) {
	m, n, err := newMachine(false)
	if err != nil {
		return nil, nil, err
	}
	if res := m.Connect(ctx); !res.OK() {
		m.Close()
		fmt.Println(ui.Err("Oops! " + res.Failure.Kind.Message()))
		return nil, nil, res.Err()
	}
	if s := m.Session(); s != nil && s.ChainID.Int64() != n.ChainID {
		fmt.Println(ui.Warn(fmt.Sprintf("RPC reports chain %s, expected %s (%d)", s.ChainID, n.DisplayName, n.ChainID)))
	}
	return m, n, nil
}

// readHandle dials the active network without a wallet, for read-only calls.
func readHandle(ctx context.Context) (*contract.Handle, func(), *chain.Network, error) {
	n, err := activeNetwork()
	if err != nil {
		return nil, nil, nil, err
	}
	desc, err := vendingDescriptor()
	if err != nil {
		return nil, nil, nil, err
	}
	url, err := resolveRPC(ctx, n, true)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := dialRPC(ctx, url)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return contract.NewHandle(client, desc), client.Close, n, nil
}
