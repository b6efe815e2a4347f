package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// nodeServer answers eth_blockNumber with blockNum after delay and counts hits.
func nodeServer(t *testing.T, blockNum uint64, delay time.Duration) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"0x%x"}`, req.ID, blockNum)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

const deadURL = "http://127.0.0.1:19994"

func TestProbeOneHealthy(t *testing.T) {
	srv, _ := nodeServer(t, 1000, 0)

	p := ProbeOne(context.Background(), srv.URL)
	require.NoError(t, p.Err)
	assert.True(t, p.Healthy())
	assert.Equal(t, srv.URL, p.URL)
	assert.Equal(t, uint64(1000), p.BlockNumber)
	assert.Greater(t, p.Latency, time.Duration(0))
}

func TestProbeOneUnreachable(t *testing.T) {
	p := ProbeOne(context.Background(), deadURL)
	assert.Error(t, p.Err)
	assert.False(t, p.Healthy())
}

func TestProbeAllKeepsOrder(t *testing.T) {
	a, _ := nodeServer(t, 10, 20*time.Millisecond)
	b, _ := nodeServer(t, 11, 0)

	probes := ProbeAll(context.Background(), []string{a.URL, deadURL, b.URL})
	require.Len(t, probes, 3)
	assert.Equal(t, a.URL, probes[0].URL)
	assert.Equal(t, uint64(10), probes[0].BlockNumber)
	assert.False(t, probes[1].Healthy())
	assert.Equal(t, uint64(11), probes[2].BlockNumber)
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select(context.Background(), nil, AlgorithmFastest, nil)
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}

func TestSelectSingleURLSkipsProbe(t *testing.T) {
	srv, hits := nodeServer(t, 1, 0)

	got, err := Select(context.Background(), []string{srv.URL}, AlgorithmFastest, nil)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, got)
	assert.Zero(t, hits.Load())
}

func TestSelectFastest(t *testing.T) {
	slow, _ := nodeServer(t, 100, 150*time.Millisecond)
	fast, _ := nodeServer(t, 100, 0)

	got, err := Select(context.Background(), []string{slow.URL, deadURL, fast.URL}, AlgorithmFastest, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, fast.URL, got)
}

func TestSelectFailoverStopsAtFirstHealthy(t *testing.T) {
	first, _ := nodeServer(t, 100, 50*time.Millisecond)
	second, hits := nodeServer(t, 100, 0)

	got, err := Select(context.Background(), []string{deadURL, first.URL, second.URL}, AlgorithmFailover, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, first.URL, got)
	assert.Zero(t, hits.Load(), "later endpoints are not probed")
}

func TestSelectAllDown(t *testing.T) {
	for _, algo := range []Algorithm{AlgorithmFastest, AlgorithmFailover} {
		t.Run(string(algo), func(t *testing.T) {
			_, err := Select(context.Background(), []string{deadURL, "http://127.0.0.1:19995"}, algo, nil)
			assert.ErrorIs(t, err, ErrNoHealthyRPC)
		})
	}
}

func TestSelectFailoverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Select(ctx, []string{deadURL, "http://127.0.0.1:19995"}, AlgorithmFailover, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
