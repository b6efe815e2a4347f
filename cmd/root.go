package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mohsinsiddi/donutxpress/internal/config"
	"github.com/Mohsinsiddi/donutxpress/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/donutxpress/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir      string
	cfg         *config.Config
	logger      = zap.NewNop()
	verbose     bool
	networkFlag string
	rpcFlag     string
	walletFlag  string
	timeout     time.Duration
)

// rootCmd is the top-level command. Without a sub-command it opens the
// vending machine page.
var rootCmd = &cobra.Command{
	Use:   "donutx",
	Short: "Buy donuts from an on-chain vending machine",
	Long: `donutx: the Donut Xpress vending machine in your terminal.

  Connect a wallet, see how many donuts the machine holds and how many
  you own, and buy more at 0.0001 ETH each.

Running donutx with no sub-command opens the interactive page.
Global flags --network, --rpc and --wallet override the config for a
single invocation.`,
	Version:      Version,
	SilenceUsage: true,
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
		logger, err = logging.New(logging.Options{
			File:  cfg.LogPath(),
			Level: cfg.LogLevel,
			// The page owns the terminal; console logs would tear it.
			Verbose: verbose && !isInteractive(cmd),
			Stderr:  os.Stderr,
		})
		if err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("dir", cfg.Dir()), zap.String("command", cmd.CommandPath()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runMachine,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func isInteractive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "machine"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $DONUTX_CONFIG_DIR or ~/.donutx)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use, see: donutx network list")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "JSON-RPC endpoint, skips endpoint selection")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "wallet to use instead of the default")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "give up after this long, e.g. 90s (default: no limit)")

	rootCmd.AddCommand(
		machineCmd,
		connectCmd,
		inventoryCmd,
		balanceCmd,
		ownerCmd,
		infoCmd,
		buyCmd,
		restockCmd,
		walletCmd,
		networkCmd,
		configCmd,
	)
}
