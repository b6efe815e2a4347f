// Package contracttest provides an in-memory VendingMachine chain for tests.
package contracttest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// WeiPerDonut mirrors the contract's price check: 0.0001 ether.
var WeiPerDonut = big.NewInt(100_000_000_000_000)

// Chain is a fake node running a single VendingMachine contract.
// Set the exported error fields to inject failures.
type Chain struct {
	mu sync.Mutex

	abi      abi.ABI
	chainID  *big.Int
	owner    common.Address
	stock    *big.Int
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	calls    []string
	sent     []*types.Transaction
	closed   bool

	GasPrice     *big.Int
	ChainIDErr   error
	CallErr      error
	SendErr      error
	ReceiptErr   error
	PendingPolls int  // receipt lookups answered with NotFound before mining
	RevertNext   bool // next transaction is mined with status 0
}

// NewChain returns a chain whose machine holds inventory donuts.
func NewChain(a abi.ABI, owner common.Address, inventory int64) *Chain {
	return &Chain{
		abi:      a,
		chainID:  big.NewInt(1337),
		owner:    owner,
		stock:    big.NewInt(inventory),
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
		GasPrice: big.NewInt(1_000_000_000),
	}
}

// ID returns the fake chain's ID.
func (c *Chain) ID() *big.Int { return new(big.Int).Set(c.chainID) }

// ChainID implements the client side of eth_chainId.
func (c *Chain) ChainID(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ChainIDErr != nil {
		return nil, c.ChainIDErr
	}
	return new(big.Int).Set(c.chainID), nil
}

// Close marks the client closed.
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Inventory returns the machine's current stock.
func (c *Chain) Inventory() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stock.Int64()
}

// Balance returns account's donut balance.
func (c *Chain) Balance(account common.Address) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceOf(account).Int64()
}

// Calls returns the method names seen by CallContract, in order.
func (c *Chain) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Sent returns every transaction accepted by SendTransaction.
func (c *Chain) Sent() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*types.Transaction(nil), c.sent...)
}

// CallContract implements contract.Backend.
func (c *Chain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CallErr != nil {
		return nil, c.CallErr
	}
	method, args, err := c.decode(msg.Data)
	if err != nil {
		return nil, err
	}
	c.calls = append(c.calls, method.RawName)

	switch method.RawName {
	case "donutBalances":
		return method.Outputs.Pack(c.balanceOf(args[0].(common.Address)))
	case "getVendingMachineBalance":
		return method.Outputs.Pack(new(big.Int).Set(c.stock))
	case "owner":
		return method.Outputs.Pack(c.owner)
	case "purchase", "restock":
		value := msg.Value
		if value == nil {
			value = new(big.Int)
		}
		if err := c.check(method.RawName, msg.From, value, args[0].(*big.Int)); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return nil, fmt.Errorf("execution reverted: unknown method %s", method.RawName)
}

// PendingNonceAt implements contract.Backend.
func (c *Chain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

// SuggestGasPrice implements contract.Backend.
func (c *Chain) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.GasPrice), nil
}

// SendTransaction implements contract.Backend. The transaction is mined
// immediately.
func (c *Chain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return c.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.Nonce() != c.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), c.nonces[from])
	}
	method, args, err := c.decode(tx.Data())
	if err != nil {
		return err
	}

	c.nonces[from]++
	c.sent = append(c.sent, tx)

	status := types.ReceiptStatusSuccessful
	amount := args[0].(*big.Int)
	if c.RevertNext || c.check(method.RawName, from, tx.Value(), amount) != nil {
		status = types.ReceiptStatusFailed
		c.RevertNext = false
	} else {
		c.apply(method.RawName, from, amount)
	}

	c.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		GasUsed:     50_000,
		BlockNumber: big.NewInt(int64(len(c.sent))),
	}
	return nil
}

// TransactionReceipt implements contract.Backend.
func (c *Chain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ReceiptErr != nil {
		return nil, c.ReceiptErr
	}
	if c.PendingPolls > 0 {
		c.PendingPolls--
		return nil, ethereum.NotFound
	}
	r, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (c *Chain) decode(data []byte) (*abi.Method, []any, error) {
	if len(data) < 4 {
		return nil, nil, errors.New("execution reverted: missing selector")
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("execution reverted: %w", err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("execution reverted: %w", err)
	}
	return method, args, nil
}

func (c *Chain) check(method string, from common.Address, value, amount *big.Int) error {
	switch method {
	case "purchase":
		price := new(big.Int).Mul(amount, WeiPerDonut)
		if value.Cmp(price) < 0 {
			return errors.New("execution reverted: You must pay at least 0.0001 ETH per donut")
		}
		if c.stock.Cmp(amount) < 0 {
			return errors.New("execution reverted: Not enough donuts in stock to complete this purchase")
		}
	case "restock":
		if from != c.owner {
			return errors.New("execution reverted: Only the owner can restock.")
		}
	}
	return nil
}

func (c *Chain) apply(method string, from common.Address, amount *big.Int) {
	switch method {
	case "purchase":
		c.stock = new(big.Int).Sub(c.stock, amount)
		c.balances[from] = new(big.Int).Add(c.balanceOf(from), amount)
	case "restock":
		c.stock = new(big.Int).Add(c.stock, amount)
	}
}

func (c *Chain) balanceOf(account common.Address) *big.Int {
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// KeySigner signs with a raw private key.
type KeySigner struct {
	Key *ecdsa.PrivateKey
}

// NewKeySigner generates a fresh key.
func NewKeySigner() *KeySigner {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &KeySigner{Key: key}
}

// Address implements contract.TxSigner.
func (s *KeySigner) Address() common.Address { return crypto.PubkeyToAddress(s.Key.PublicKey) }

// SignTx implements contract.TxSigner.
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.Key)
}
