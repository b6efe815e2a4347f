package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/Mohsinsiddi/donutxpress/internal/chain"
)

// ProbeTimeout bounds a single endpoint probe.
const ProbeTimeout = 5 * time.Second

// Probe is the outcome of pinging one endpoint.
type Probe struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Healthy reports whether the endpoint answered.
func (p Probe) Healthy() bool { return p.Err == nil }

// ProbeOne pings url with ProbeTimeout.
func ProbeOne(ctx context.Context, url string) Probe {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	latency, block, err := chain.Ping(ctx, url)
	return Probe{URL: url, Latency: latency, BlockNumber: block, Err: err}
}

// ProbeAll pings every url in parallel. Results keep the order of urls.
func ProbeAll(ctx context.Context, urls []string) []Probe {
	results := make([]Probe, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			results[idx] = ProbeOne(ctx, u)
		}(i, url)
	}

	wg.Wait()
	return results
}
