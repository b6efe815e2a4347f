package rpc

import (
	"errors"
	"fmt"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Nodes more than this many blocks behind the best are stale.
	staleBlockThreshold = 3
)

// ParseAlgorithm accepts "fastest", "failover" or "" (fastest).
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmFastest:
		return AlgorithmFastest, nil
	case AlgorithmFailover:
		return AlgorithmFailover, nil
	}
	return "", fmt.Errorf("unknown rpc algorithm %q", s)
}

// Pick chooses among probed endpoints. Fastest scores healthy, fresh nodes by
// latency and recency; failover takes the first healthy one in list order.
func Pick(algo Algorithm, probes []Probe) (Probe, error) {
	if algo == AlgorithmFailover {
		for _, p := range probes {
			if p.Healthy() {
				return p, nil
			}
		}
		return Probe{}, ErrNoHealthyRPC
	}

	best := bestBlock(probes)
	var (
		winner    Probe
		bestScore float64
		found     bool
	)
	for _, p := range probes {
		if !p.Healthy() || isStale(p, best) {
			continue
		}
		s := score(p, best)
		if !found || s > bestScore {
			winner, bestScore, found = p, s, true
		}
	}
	if !found {
		return Probe{}, ErrNoHealthyRPC
	}
	return winner, nil
}

func bestBlock(probes []Probe) uint64 {
	var best uint64
	for _, p := range probes {
		if p.Healthy() && p.BlockNumber > best {
			best = p.BlockNumber
		}
	}
	return best
}

func isStale(p Probe, best uint64) bool {
	return best > 0 && best-p.BlockNumber > staleBlockThreshold
}

// score: higher is better. Latency dominates; each block behind costs a point.
func score(p Probe, best uint64) float64 {
	var s float64
	if ms := p.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else {
		s += 1000.0
	}
	if best > 0 {
		s -= float64(best - p.BlockNumber)
	}
	return s
}
