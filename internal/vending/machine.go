// Package vending drives the Donut Xpress page: wallet connection, the two
// reads (machine inventory and the caller's donuts) and the purchase flow.
// State lives in an immutable ViewState advanced by Reduce; Machine performs
// the side effects and dispatches events.
package vending

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mohsinsiddi/donutxpress/internal/contract"
	"github.com/Mohsinsiddi/donutxpress/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var (
	errNotConnected     = errors.New("no wallet connected")
	errNegativeQuantity = errors.New("quantity must not be negative")
)

// Connector opens a wallet session. *wallet.Connector satisfies it.
type Connector interface {
	Connect(ctx context.Context, walletName, rpcURL string) (*wallet.Session, error)
}

// Machine runs vending operations against one wallet session at a time.
// It is safe for concurrent use.
type Machine struct {
	connector  Connector
	desc       *contract.Descriptor
	walletName string
	rpcURL     string
	gasLimit   uint64
	poll       time.Duration
	log        *zap.Logger
	observe    func(ViewState)

	reqID atomic.Uint64

	mu      sync.Mutex
	state   ViewState
	session *wallet.Session
	handle  *contract.Handle
}

// Option configures a Machine.
type Option func(*Machine)

// WithWallet selects the wallet to connect; empty means the default wallet.
func WithWallet(name string) Option { return func(m *Machine) { m.walletName = name } }

// WithRPC sets the JSON-RPC endpoint to dial on connect.
func WithRPC(url string) Option { return func(m *Machine) { m.rpcURL = url } }

// WithDescriptor binds the machine to a different deployment.
func WithDescriptor(d *contract.Descriptor) Option { return func(m *Machine) { m.desc = d } }

// WithGasLimit overrides contract.DefaultGasLimit.
func WithGasLimit(limit uint64) Option { return func(m *Machine) { m.gasLimit = limit } }

// WithPollInterval sets how often receipts are polled.
func WithPollInterval(d time.Duration) Option { return func(m *Machine) { m.poll = d } }

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option { return func(m *Machine) { m.log = l } }

// WithObserver registers fn to receive every new state. fn is called with
// the machine's lock released, in dispatch order per goroutine.
func WithObserver(fn func(ViewState)) Option { return func(m *Machine) { m.observe = fn } }

// New returns a disconnected machine.
func New(connector Connector, opts ...Option) *Machine {
	m := &Machine{
		connector: connector,
		desc:      contract.Vending(),
		gasLimit:  contract.DefaultGasLimit,
		poll:      contract.DefaultPollInterval,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current view state.
func (m *Machine) State() ViewState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the active wallet session, or nil.
func (m *Machine) Session() *wallet.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Close releases the active session.
func (m *Machine) Close() {
	m.mu.Lock()
	s := m.session
	m.session, m.handle = nil, nil
	m.mu.Unlock()
	s.Close()
}

// Connect opens a wallet session and then reads inventory and the caller's
// balance. Read failures after a successful connect are logged only.
func (m *Machine) Connect(ctx context.Context) Result[common.Address] {
	s, err := m.connector.Connect(ctx, m.walletName, m.rpcURL)
	if err != nil {
		kind := Classify(err, KindConnectionError)
		m.log.Warn("wallet connect failed", zap.Stringer("kind", kind), zap.Error(err))
		f := &Failure{Kind: kind, Detail: err}
		m.dispatch(ConnectFailed{Failure: f})
		return Result[common.Address]{Failure: f}
	}

	m.mu.Lock()
	prev := m.session
	m.session = s
	m.handle = contract.NewHandle(s.Client, m.desc)
	m.mu.Unlock()
	if prev != nil && prev != s {
		prev.Close()
	}

	m.log.Info("wallet connected",
		zap.String("account", s.Account.Hex()),
		zap.Stringer("chain_id", s.ChainID),
		zap.String("rpc", s.RPCURL))
	m.dispatch(Connected{Account: s.Account.Hex()})

	m.RefreshInventory(ctx)
	m.RefreshCallerBalance(ctx)
	return ok(s.Account)
}

// RefreshInventory reads the machine's stock. On failure Inventory keeps its
// previous value.
func (m *Machine) RefreshInventory(ctx context.Context) Result[*big.Int] {
	h, _ := m.bound()
	if h == nil {
		return fail[*big.Int](KindReadFailed, errNotConnected)
	}

	id := m.reqID.Add(1)
	m.dispatch(InventoryRequested{ID: id})

	v, err := h.Inventory(ctx)
	if err != nil {
		m.log.Warn("inventory read failed", zap.Uint64("req", id), zap.Error(err))
		return fail[*big.Int](KindReadFailed, err)
	}
	m.dispatch(InventoryLoaded{ID: id, Value: v})
	return ok(v)
}

// RefreshCallerBalance reads the connected account's donuts. Without an
// account it does nothing and returns an empty result.
func (m *Machine) RefreshCallerBalance(ctx context.Context) Result[*big.Int] {
	h, account := m.bound()
	if h == nil {
		return Result[*big.Int]{}
	}

	id := m.reqID.Add(1)
	m.dispatch(BalanceRequested{ID: id})

	v, err := h.BalanceOf(ctx, account)
	if err != nil {
		m.log.Warn("balance read failed", zap.Uint64("req", id), zap.Error(err))
		return fail[*big.Int](KindReadFailed, err)
	}
	m.dispatch(BalanceLoaded{ID: id, Value: v})
	return ok(v)
}

// SetQuantity records the quantity text exactly as typed.
func (m *Machine) SetQuantity(text string) {
	m.dispatch(QuantityChanged{Text: text})
}

// DismissNotice clears the current notice.
func (m *Machine) DismissNotice() {
	m.dispatch(NoticeDismissed{})
}

// SubmitPurchase buys the quantity currently entered. The payment is
// quantity × UnitPrice. After the receipt arrives, inventory and balance are
// re-read before InFlight clears. Any failure, including having no connected
// wallet, clears the quantity and shows "Transaction failed". Only one
// purchase or restock runs at a time; a second call while one is in flight
// returns KindBusy.
func (m *Machine) SubmitPurchase(ctx context.Context) Result[*types.Receipt] {
	s, h, quantity, busy := m.begin(PurchaseStarted{})
	if busy {
		return fail[*types.Receipt](KindBusy, errors.New("purchase already in flight"))
	}

	failed := func(err error) Result[*types.Receipt] {
		m.log.Warn("purchase failed", zap.String("quantity", quantity), zap.Error(err))
		f := &Failure{Kind: KindTransactionFailed, Detail: err}
		m.dispatch(PurchaseFailed{Failure: f})
		return Result[*types.Receipt]{Failure: f}
	}
	if s == nil {
		quantity = m.State().Quantity
		return failed(errNotConnected)
	}

	amount := ParseQuantity(quantity)
	if amount.Sign() < 0 {
		return failed(errNegativeQuantity)
	}

	value := PaymentWei(amount)
	m.log.Info("submitting purchase",
		zap.Stringer("amount", amount),
		zap.String("value_eth", FormatEther(value)))

	tx, err := h.Purchase(ctx, m.txOpts(s, value), amount)
	if err != nil {
		return failed(err)
	}
	receipt, err := contract.WaitMined(ctx, s.Client, tx, m.poll)
	if err != nil {
		return failed(err)
	}
	m.log.Info("purchase mined",
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("gas_used", receipt.GasUsed))

	m.RefreshInventory(ctx)
	m.RefreshCallerBalance(ctx)
	m.dispatch(PurchaseSettled{Amount: amount})
	return ok(receipt)
}

// Restock sends a restock transaction for amount donuts and re-reads both
// counters once it is mined. The contract only accepts it from the owner.
func (m *Machine) Restock(ctx context.Context, amount *big.Int) Result[*types.Receipt] {
	s, h, _, busy := m.begin(RestockStarted{})
	if busy {
		return fail[*types.Receipt](KindBusy, errors.New("transaction already in flight"))
	}

	failed := func(err error) Result[*types.Receipt] {
		m.log.Warn("restock failed", zap.Stringer("amount", amount), zap.Error(err))
		f := &Failure{Kind: KindTransactionFailed, Detail: err}
		m.dispatch(RestockFailed{Failure: f})
		return Result[*types.Receipt]{Failure: f}
	}
	if s == nil {
		return failed(errNotConnected)
	}
	if amount == nil || amount.Sign() < 0 {
		return failed(errors.New("restock amount must not be negative"))
	}

	tx, err := h.Restock(ctx, m.txOpts(s, nil), amount)
	if err != nil {
		return failed(err)
	}
	receipt, err := contract.WaitMined(ctx, s.Client, tx, m.poll)
	if err != nil {
		return failed(err)
	}
	m.log.Info("restock mined", zap.String("tx", tx.Hash().Hex()), zap.Stringer("amount", amount))

	m.RefreshInventory(ctx)
	m.RefreshCallerBalance(ctx)
	m.dispatch(RestockSettled{Amount: amount})
	return ok(receipt)
}

// RestockDryRun evaluates restock(amount) with eth_call from the connected
// account. Nothing is broadcast and the view state does not change.
func (m *Machine) RestockDryRun(ctx context.Context, amount *big.Int) Result[struct{}] {
	h, account := m.bound()
	if h == nil {
		return fail[struct{}](KindWalletUnavailable, errNotConnected)
	}
	if err := h.Simulate(ctx, account, nil, contract.FnRestock, amount); err != nil {
		return fail[struct{}](KindTransactionFailed, err)
	}
	return ok(struct{}{})
}

// --- internal ---

func (m *Machine) dispatch(e Event) {
	m.mu.Lock()
	m.state = Reduce(m.state, e)
	st := m.state
	m.mu.Unlock()
	if m.observe != nil {
		m.observe(st)
	}
}

// begin atomically checks the in-flight guard and, when free, applies start.
func (m *Machine) begin(start Event) (*wallet.Session, *contract.Handle, string, bool) {
	m.mu.Lock()
	s, h := m.session, m.handle
	if s == nil {
		m.mu.Unlock()
		return nil, nil, "", false
	}
	if m.state.InFlight {
		m.mu.Unlock()
		return s, h, "", true
	}
	quantity := m.state.Quantity
	m.state = Reduce(m.state, start)
	st := m.state
	m.mu.Unlock()

	if m.observe != nil {
		m.observe(st)
	}
	return s, h, quantity, false
}

func (m *Machine) bound() (*contract.Handle, common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return nil, common.Address{}
	}
	return m.handle, m.session.Account
}

func (m *Machine) txOpts(s *wallet.Session, value *big.Int) contract.TxOpts {
	return contract.TxOpts{
		Signer:   s.Signer,
		ChainID:  s.ChainID,
		Value:    value,
		GasLimit: m.gasLimit,
	}
}
