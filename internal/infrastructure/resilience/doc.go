/*
Package resilience provides the circuit breaker in front of layout storage.

storage.NewGuarded wraps every backend call in Call. Not-found and invalid
keys count as successes, so only real I/O failures move the breaker. Once
it opens, reads and writes fail fast with ErrCircuitOpen: the workspace
manager then serves detached defaults instead of loading, the layout store
logs the failed persist, and /health reports "degraded". After Timeout a
single probe is let through and its outcome closes or reopens the breaker.

	data, err := resilience.Call(breaker, func() ([]byte, error) {
		return backend.Get(ctx, key)
	})
*/
package resilience
