package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrWrongChain is returned by Verify when an endpoint serves another chain.
var ErrWrongChain = errors.New("rpc serves a different chain")

// Ping dials url and reads the latest block number.
func Ping(ctx context.Context, url string) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return time.Since(start), 0, err
	}
	defer c.Close()

	blockNum, err = c.BlockNumber(ctx)
	latency = time.Since(start)
	if err != nil {
		return latency, 0, err
	}
	return latency, blockNum, nil
}

// Verify checks that url answers with the network's chain ID.
func (n *Network) Verify(ctx context.Context, url string) error {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return err
	}
	defer c.Close()

	id, err := c.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("reading chain id: %w", err)
	}
	if id.Int64() != n.ChainID {
		return fmt.Errorf("%w: %s reports %s, %s is %d", ErrWrongChain, url, id, n.Name, n.ChainID)
	}
	return nil
}
