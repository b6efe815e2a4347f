package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/donutxpress/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Connect errors. Every error returned by Connector.Connect wraps exactly one
// of these.
var (
	ErrWalletUnavailable = errors.New("no wallet found")
	ErrUserRejected      = errors.New("wallet access rejected")
	ErrConnection        = errors.New("connection error")
)

// Client is the network client a session carries.
type Client interface {
	contract.Backend
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// Dialer opens a Client for an RPC URL.
type Dialer func(ctx context.Context, rawURL string) (Client, error)

// DialRPC dials rawURL with go-ethereum's ethclient.
func DialRPC(ctx context.Context, rawURL string) (Client, error) {
	c, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Session is a connected wallet: the network client plus the active account.
type Session struct {
	Client  Client
	Account common.Address
	ChainID *big.Int
	Signer  *Signer
	Wallet  *Wallet
	RPCURL  string
}

// Close releases the network client.
func (s *Session) Close() {
	if s != nil && s.Client != nil {
		s.Client.Close()
	}
}

// Connector turns a stored wallet into a Session.
type Connector struct {
	Wallets *Manager
	Dial    Dialer

	// Endpoint, when set, picks the RPC URL once the wallet is unlocked and
	// replaces the rpcURL passed to Connect.
	Endpoint func(ctx context.Context) (string, error)
}

// NewConnector returns a connector dialing with ethclient.
func NewConnector(wallets *Manager) *Connector {
	return &Connector{Wallets: wallets, Dial: DialRPC}
}

// Connect resolves walletName (or the default wallet when empty), unlocks
// its key and dials rpcURL. No network client is created, and Endpoint is
// not consulted, unless a signing wallet was found and unlocked.
func (c *Connector) Connect(ctx context.Context, walletName, rpcURL string) (*Session, error) {
	w, err := c.resolve(walletName)
	if err != nil {
		return nil, err
	}

	signer, err := Unlock(w, c.Wallets.KeyStore())
	switch {
	case errors.Is(err, ErrInvalidKey):
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUserRejected, err)
	}

	accounts := w.Accounts()
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: wallet %q has no accounts", ErrWalletUnavailable, w.Name)
	}

	if c.Endpoint != nil {
		if rpcURL, err = c.Endpoint(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnection, err)
		}
	}

	client, err := c.Dial(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrConnection, rpcURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: reading chain id: %v", ErrConnection, err)
	}

	return &Session{
		Client:  client,
		Account: accounts[0],
		ChainID: chainID,
		Signer:  signer,
		Wallet:  w,
		RPCURL:  rpcURL,
	}, nil
}

func (c *Connector) resolve(name string) (*Wallet, error) {
	var w *Wallet
	if name != "" {
		found, err := c.Wallets.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
		}
		w = found
	} else {
		found, err := c.Wallets.Default()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWalletUnavailable, err)
		}
		w = found
	}
	if w == nil {
		return nil, fmt.Errorf("%w: add one with `donutx wallet add <name> --key <hex>`", ErrWalletUnavailable)
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: wallet %q is watch-only", ErrWalletUnavailable, w.Name)
	}
	return w, nil
}
