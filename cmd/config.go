package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/donutxpress/internal/chain"
	"github.com/Mohsinsiddi/donutxpress/internal/config"
	"github.com/Mohsinsiddi/donutxpress/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show the current settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logFile := cfg.LogPath()
		if logFile == "" {
			logFile = "(off)"
		}
		wallet := cfg.DefaultWallet
		if wallet == "" {
			wallet = "(none)"
		}
		fmt.Println(ui.KeyValueBlock("Config "+ui.Meta(cfg.Dir()), [][2]string{
			{"network", cfg.Network},
			{"default_wallet", wallet},
			{"rpc_algorithm", cfg.RPCAlgorithm},
			{"contract_address", cfg.ContractAddress},
			{"gas_limit", strconv.FormatUint(cfg.GasLimit, 10)},
			{"receipt_poll_seconds", strconv.Itoa(cfg.ReceiptPollSeconds)},
			{"log_file", logFile},
			{"log_level", cfg.LogLevel},
		}))
		for network, rpcs := range cfg.CustomRPCs {
			for _, u := range rpcs {
				fmt.Printf("  %s %s\n", ui.ChainName(network), u)
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: "Change a setting. Keys: " + strings.Join(config.Keys(), ", ") + `

Examples:
  donutx config set network local
  donutx config set contract_address 0x5FbDB2315678afecb367f032d93F642f64180aa3
  donutx config set log_file default`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if key == "network" {
			if _, err := chain.NewRegistry().GetByName(value); err != nil {
				return fmt.Errorf("unknown network %q: run `donutx network list` to see all networks", value)
			}
			value = strings.ToLower(value)
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %s", key, ui.Val(value))))
		return nil
	},
}

var configAddRPCCmd = &cobra.Command{
	Use:   "add-rpc <network> <url>",
	Short: "Add a custom RPC URL for a network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, rawURL := strings.ToLower(args[0]), args[1]
		if _, err := chain.NewRegistry().GetByName(network); err != nil {
			return fmt.Errorf("unknown network %q", network)
		}
		if u, err := url.Parse(rawURL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid RPC URL %q", rawURL)
		}
		if err := cfg.AddRPC(network, rawURL); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(network), rawURL)))
		return nil
	},
}

var configRemoveRPCCmd = &cobra.Command{
	Use:   "remove-rpc <network> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, rawURL := strings.ToLower(args[0]), args[1]
		if err := cfg.RemoveRPC(network, rawURL); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", network, rawURL)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configAddRPCCmd, configRemoveRPCCmd)
}
