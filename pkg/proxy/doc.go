// Package proxy finds working proxies in an untrusted candidate pool.
//
// Verifier probes one proxy against a fixed set of highly available
// endpoints. Selector keeps a run-scoped cache of proxies that passed and,
// on a cache miss, races random batches of untested candidates:
//
//	verifier := proxy.NewVerifier(cfg.Proxy, agents, log)
//	selector := proxy.NewSelector(verifier, candidates, cfg.Proxy, log, time.Now().UnixNano())
//	if p, ok := selector.Acquire(ctx); ok {
//		// use p
//	}
//
// Both http(s) and socks5 proxies are supported; a bare host:port is http.
package proxy
