package rpc

import (
	"context"

	"go.uber.org/zap"
)

// Select picks the RPC URL the CLI should dial. A single URL is returned
// without probing. Failover probes in order and stops at the first healthy
// endpoint; fastest probes everything in parallel.
func Select(ctx context.Context, urls []string, algo Algorithm, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	if algo == AlgorithmFailover {
		for _, u := range urls {
			p := ProbeOne(ctx, u)
			if p.Healthy() {
				log.Debug("rpc selected", zap.String("url", u), zap.String("algorithm", string(algo)))
				return u, nil
			}
			log.Debug("rpc unhealthy", zap.String("url", u), zap.Error(p.Err))
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}
		return "", ErrNoHealthyRPC
	}

	probes := ProbeAll(ctx, urls)
	for _, p := range probes {
		log.Debug("rpc probed",
			zap.String("url", p.URL),
			zap.Duration("latency", p.Latency),
			zap.Uint64("block", p.BlockNumber),
			zap.Error(p.Err))
	}
	winner, err := Pick(algo, probes)
	if err != nil {
		return "", err
	}
	log.Debug("rpc selected", zap.String("url", winner.URL), zap.String("algorithm", string(algo)))
	return winner.URL, nil
}
