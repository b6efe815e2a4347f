package chain

import (
	"errors"
	"slices"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Network holds the metadata for one place the vending machine can live.
type Network struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	ChainID        int64    `json:"chain_id"`
	NativeCurrency string   `json:"native_currency"`
	RPCs           []string `json:"rpcs"`
	Explorer       string   `json:"explorer,omitempty"`
	// FaucetURL is where test ETH comes from (empty for mainnet and local).
	FaucetURL string `json:"faucet_url,omitempty"`
	Testnet   bool   `json:"testnet"`
}

// Registry is the network registry.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry returns the registry of every supported network.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Network {
	return r.networks
}

// GetByName finds a network by its slug (e.g. "sepolia", "local").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

// GetByChainID finds a network by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

// Endpoints returns custom RPCs first, then the built-in ones, without
// duplicates.
func (n *Network) Endpoints(custom []string) []string {
	out := make([]string, 0, len(custom)+len(n.RPCs))
	for _, u := range append(slices.Clone(custom), n.RPCs...) {
		if u != "" && !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}

// TxURL links a transaction hash on the network's explorer.
func (n *Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return n.Explorer + "/tx/" + hash
}

// AddressURL links an address on the network's explorer.
func (n *Network) AddressURL(addr string) string {
	if n.Explorer == "" {
		return ""
	}
	return n.Explorer + "/address/" + addr
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://ethereum-sepolia-rpc.publicnode.com", "https://sepolia.gateway.tenderly.co", "https://rpc.sepolia.org"},
			Explorer:       "https://sepolia.etherscan.io",
			FaucetURL:      "https://sepoliafaucet.com",
			Testnet:        true,
		},
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			Explorer:       "https://etherscan.io",
		},
		{
			Name: "holesky", DisplayName: "Holesky", ChainID: 17000,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://ethereum-holesky-rpc.publicnode.com"},
			Explorer:       "https://holesky.etherscan.io",
			FaucetURL:      "https://holesky-faucet.pk910.de",
			Testnet:        true,
		},
		// anvil / hardhat node
		{
			Name: "local", DisplayName: "Local node", ChainID: 31337,
			NativeCurrency: "ETH",
			RPCs:           []string{"http://127.0.0.1:8545"},
			Testnet:        true,
		},
	}
}
