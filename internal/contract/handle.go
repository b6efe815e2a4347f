package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultGasLimit is the gas limit attached to every write transaction.
const DefaultGasLimit uint64 = 3_000_000

// Backend is the part of an Ethereum client a Handle needs.
// *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TxSigner signs transactions for a single account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// TxOpts carries the per-transaction parameters for Transact.
type TxOpts struct {
	Signer   TxSigner
	ChainID  *big.Int
	Value    *big.Int // wei; nil means zero
	GasLimit uint64   // 0 means DefaultGasLimit
}

// Handle issues read calls and write transactions against one deployed contract.
type Handle struct {
	backend Backend
	desc    *Descriptor
}

// NewHandle binds d to backend.
func NewHandle(backend Backend, d *Descriptor) *Handle {
	return &Handle{backend: backend, desc: d}
}

// Address returns the bound contract address.
func (h *Handle) Address() common.Address { return h.desc.Address }

// Descriptor returns the bound descriptor.
func (h *Handle) Descriptor() *Descriptor { return h.desc }

// Call invokes a read function and returns its decoded outputs.
func (h *Handle) Call(ctx context.Context, from common.Address, method string, args ...any) ([]any, error) {
	fn, err := h.desc.Function(method)
	if err != nil {
		return nil, err
	}
	if !fn.IsRead() {
		return nil, fmt.Errorf("%w: %q (stateMutability: %s)", ErrNotReadable, method, fn.Mutability)
	}

	data, err := h.desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	to := h.desc.Address
	out, err := h.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	decoded, err := h.desc.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return decoded, nil
}

// Simulate runs a write function as an eth_call. Nothing is signed or
// broadcast, so chain state is never changed; a revert is returned as an error.
func (h *Handle) Simulate(ctx context.Context, from common.Address, value *big.Int, method string, args ...any) error {
	fn, err := h.desc.Function(method)
	if err != nil {
		return err
	}
	if !fn.IsWrite() {
		return fmt.Errorf("%w: %q", ErrNotWritable, method)
	}

	data, err := h.desc.ABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("encoding call: %w", err)
	}

	to := h.desc.Address
	msg := ethereum.CallMsg{From: from, To: &to, Data: data, Value: value}
	if _, err := h.backend.CallContract(ctx, msg, nil); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}

// Transact signs and broadcasts a write transaction. It returns once the node
// has accepted the transaction; use WaitMined for the receipt.
func (h *Handle) Transact(ctx context.Context, opts TxOpts, method string, args ...any) (*types.Transaction, error) {
	fn, err := h.desc.Function(method)
	if err != nil {
		return nil, err
	}
	if !fn.IsWrite() {
		return nil, fmt.Errorf("%w: %q", ErrNotWritable, method)
	}
	if opts.Signer == nil {
		return nil, fmt.Errorf("no signer for %q", method)
	}

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !fn.IsPayable() {
		return nil, fmt.Errorf("function %q is not payable", method)
	}

	data, err := h.desc.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	from := opts.Signer.Address()
	nonce, err := h.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	gasPrice, err := h.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	gas := opts.GasLimit
	if gas == 0 {
		gas = DefaultGasLimit
	}

	to := h.desc.Address
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})

	signed, err := opts.Signer.SignTx(tx, opts.ChainID)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	if err := h.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}
	return signed, nil
}

// --- typed wrappers ---

// Inventory returns the machine's donut stock.
func (h *Handle) Inventory(ctx context.Context) (*big.Int, error) {
	return h.callUint(ctx, common.Address{}, FnMachineBalance)
}

// BalanceOf returns the donuts owned by account.
func (h *Handle) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return h.callUint(ctx, account, FnDonutBalances, account)
}

// Owner returns the contract owner.
func (h *Handle) Owner(ctx context.Context) (common.Address, error) {
	out, err := h.Call(ctx, common.Address{}, FnOwner)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("owner: expected 1 output, got %d", len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("owner: unexpected output type %T", out[0])
	}
	return addr, nil
}

// Purchase buys amount donuts, paying value wei.
func (h *Handle) Purchase(ctx context.Context, opts TxOpts, amount *big.Int) (*types.Transaction, error) {
	return h.Transact(ctx, opts, FnPurchase, amount)
}

// Restock adds amount donuts to the machine. Only the owner's transaction
// succeeds on-chain.
func (h *Handle) Restock(ctx context.Context, opts TxOpts, amount *big.Int) (*types.Transaction, error) {
	opts.Value = nil
	return h.Transact(ctx, opts, FnRestock, amount)
}

func (h *Handle) callUint(ctx context.Context, from common.Address, method string, args ...any) (*big.Int, error) {
	out, err := h.Call(ctx, from, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return n, nil
}
