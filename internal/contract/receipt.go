package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrReverted is returned when a mined transaction has status 0.
var ErrReverted = errors.New("transaction reverted")

// DefaultPollInterval is how often WaitMined asks for the receipt.
const DefaultPollInterval = 2 * time.Second

// WaitMined polls every poll interval until tx is mined or ctx is done.
// A reverted transaction returns its receipt together with ErrReverted.
func WaitMined(ctx context.Context, b Backend, tx *types.Transaction, poll time.Duration) (*types.Receipt, error) {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		receipt, err := b.TransactionReceipt(ctx, tx.Hash())
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, tx.Hash().Hex())
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("fetching receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined: %w", tx.Hash().Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
