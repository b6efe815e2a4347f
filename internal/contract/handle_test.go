package contract_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/donutxpress/internal/contract"
	"github.com/Mohsinsiddi/donutxpress/internal/contract/contracttest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func newFixture(t *testing.T, inventory int64) (*contract.Handle, *contracttest.Chain, *contracttest.KeySigner) {
	t.Helper()
	d := contract.Vending()
	owner := contracttest.NewKeySigner()
	chain := contracttest.NewChain(d.ABI, owner.Address(), inventory)
	return contract.NewHandle(chain, d), chain, owner
}

func opts(s contract.TxSigner, chain *contracttest.Chain, value *big.Int) contract.TxOpts {
	return contract.TxOpts{Signer: s, ChainID: chain.ID(), Value: value}
}

// ---------------------------------------------------------------------------
// reads
// ---------------------------------------------------------------------------

func TestHandleInventory(t *testing.T) {
	h, _, _ := newFixture(t, 100)
	n, err := h.Inventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), n.Int64())
}

func TestHandleBalanceOfUnknownAccountIsZero(t *testing.T) {
	h, _, _ := newFixture(t, 100)
	n, err := h.BalanceOf(context.Background(), common.HexToAddress("0xabc"))
	require.NoError(t, err)
	assert.Zero(t, n.Sign())
}

func TestHandleOwner(t *testing.T) {
	h, _, owner := newFixture(t, 1)
	got, err := h.Owner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, owner.Address(), got)
}

func TestHandleCallRejectsWriteFunction(t *testing.T) {
	h, chain, _ := newFixture(t, 1)
	_, err := h.Call(context.Background(), common.Address{}, contract.FnPurchase, big.NewInt(1))
	assert.ErrorIs(t, err, contract.ErrNotReadable)
	assert.Empty(t, chain.Calls(), "nothing should reach the node")
}

func TestHandleCallUnknownFunction(t *testing.T) {
	h, _, _ := newFixture(t, 1)
	_, err := h.Call(context.Background(), common.Address{}, "withdraw")
	assert.ErrorIs(t, err, contract.ErrUnknownFunction)
}

func TestHandleCallBadArgs(t *testing.T) {
	h, _, _ := newFixture(t, 1)
	_, err := h.Call(context.Background(), common.Address{}, contract.FnDonutBalances, "not-an-address")
	assert.Error(t, err)
}

func TestHandleCallNodeError(t *testing.T) {
	h, chain, _ := newFixture(t, 1)
	chain.CallErr = errors.New("dial tcp: connection refused")
	_, err := h.Inventory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// ---------------------------------------------------------------------------
// writes
// ---------------------------------------------------------------------------

func TestHandlePurchase(t *testing.T) {
	h, chain, _ := newFixture(t, 100)
	buyer := contracttest.NewKeySigner()
	ctx := context.Background()

	value := new(big.Int).Mul(big.NewInt(3), contracttest.WeiPerDonut)
	tx, err := h.Purchase(ctx, opts(buyer, chain, value), big.NewInt(3))
	require.NoError(t, err)

	assert.Equal(t, contract.DefaultGasLimit, tx.Gas())
	assert.Equal(t, value, tx.Value())
	assert.Equal(t, h.Address(), *tx.To())
	assert.Equal(t, chain.GasPrice, tx.GasPrice())

	receipt, err := contract.WaitMined(ctx, chain, tx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	assert.Equal(t, int64(97), chain.Inventory())
	assert.Equal(t, int64(3), chain.Balance(buyer.Address()))
}

func TestHandleTransactUsesPendingNonce(t *testing.T) {
	h, chain, _ := newFixture(t, 100)
	buyer := contracttest.NewKeySigner()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tx, err := h.Purchase(ctx, opts(buyer, chain, contracttest.WeiPerDonut), big.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), tx.Nonce())
	}
	assert.Equal(t, int64(3), chain.Balance(buyer.Address()))
}

func TestHandleTransactCustomGasLimit(t *testing.T) {
	h, chain, _ := newFixture(t, 10)
	buyer := contracttest.NewKeySigner()
	o := opts(buyer, chain, contracttest.WeiPerDonut)
	o.GasLimit = 120_000

	tx, err := h.Purchase(context.Background(), o, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(120_000), tx.Gas())
}

func TestHandleTransactRejectsReadFunction(t *testing.T) {
	h, chain, owner := newFixture(t, 1)
	_, err := h.Transact(context.Background(), opts(owner, chain, nil), contract.FnOwner)
	assert.ErrorIs(t, err, contract.ErrNotWritable)
	assert.Empty(t, chain.Sent())
}

func TestHandleTransactValueOnNonPayable(t *testing.T) {
	h, chain, owner := newFixture(t, 1)
	_, err := h.Transact(context.Background(), opts(owner, chain, big.NewInt(1)), contract.FnRestock, big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not payable")
}

func TestHandleTransactNoSigner(t *testing.T) {
	h, _, _ := newFixture(t, 1)
	_, err := h.Transact(context.Background(), contract.TxOpts{}, contract.FnPurchase, big.NewInt(1))
	assert.Error(t, err)
}

func TestHandleTransactBroadcastError(t *testing.T) {
	h, chain, _ := newFixture(t, 1)
	chain.SendErr = errors.New("insufficient funds for gas * price + value")
	buyer := contracttest.NewKeySigner()

	_, err := h.Purchase(context.Background(), opts(buyer, chain, contracttest.WeiPerDonut), big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broadcasting transaction")
}

func TestHandlePurchaseUnderpaidReverts(t *testing.T) {
	h, chain, _ := newFixture(t, 100)
	buyer := contracttest.NewKeySigner()
	ctx := context.Background()

	tx, err := h.Purchase(ctx, opts(buyer, chain, big.NewInt(1)), big.NewInt(2))
	require.NoError(t, err)

	receipt, err := contract.WaitMined(ctx, chain, tx, time.Millisecond)
	assert.ErrorIs(t, err, contract.ErrReverted)
	require.NotNil(t, receipt)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.Equal(t, int64(100), chain.Inventory())
}

func TestHandleRestockByOwner(t *testing.T) {
	h, chain, owner := newFixture(t, 10)
	ctx := context.Background()

	tx, err := h.Restock(ctx, opts(owner, chain, big.NewInt(5)), big.NewInt(2))
	require.NoError(t, err)
	assert.Zero(t, tx.Value().Sign(), "restock never carries value")

	_, err = contract.WaitMined(ctx, chain, tx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(12), chain.Inventory())
}

func TestHandleSimulateDoesNotChangeState(t *testing.T) {
	h, chain, owner := newFixture(t, 10)
	err := h.Simulate(context.Background(), owner.Address(), nil, contract.FnRestock, big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, int64(10), chain.Inventory())
	assert.Empty(t, chain.Sent())
}

func TestHandleSimulateReportsRevert(t *testing.T) {
	h, _, _ := newFixture(t, 10)
	stranger := common.HexToAddress("0xdead")
	err := h.Simulate(context.Background(), stranger, nil, contract.FnRestock, big.NewInt(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only the owner")
}

func TestHandleSimulateRejectsReadFunction(t *testing.T) {
	h, _, _ := newFixture(t, 10)
	err := h.Simulate(context.Background(), common.Address{}, nil, contract.FnOwner)
	assert.ErrorIs(t, err, contract.ErrNotWritable)
}

// ---------------------------------------------------------------------------
// WaitMined
// ---------------------------------------------------------------------------

func TestWaitMinedPollsUntilMined(t *testing.T) {
	h, chain, _ := newFixture(t, 5)
	buyer := contracttest.NewKeySigner()
	ctx := context.Background()

	tx, err := h.Purchase(ctx, opts(buyer, chain, contracttest.WeiPerDonut), big.NewInt(1))
	require.NoError(t, err)

	chain.PendingPolls = 3
	receipt, err := contract.WaitMined(ctx, chain, tx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Zero(t, chain.PendingPolls)
}

func TestWaitMinedContextCancelled(t *testing.T) {
	h, chain, _ := newFixture(t, 5)
	buyer := contracttest.NewKeySigner()

	tx, err := h.Purchase(context.Background(), opts(buyer, chain, contracttest.WeiPerDonut), big.NewInt(1))
	require.NoError(t, err)

	chain.PendingPolls = 1_000_000
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = contract.WaitMined(ctx, chain, tx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitMinedReceiptError(t *testing.T) {
	h, chain, _ := newFixture(t, 5)
	buyer := contracttest.NewKeySigner()

	tx, err := h.Purchase(context.Background(), opts(buyer, chain, contracttest.WeiPerDonut), big.NewInt(1))
	require.NoError(t, err)

	chain.ReceiptErr = errors.New("boom")
	_, err = contract.WaitMined(context.Background(), chain, tx, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching receipt")
}
