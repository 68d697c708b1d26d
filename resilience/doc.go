// Package resilience retries transient failures with exponential backoff.
//
// walletkit uses it around storage backends; capabilities are never retried
// by the composition engine itself.
//
//	err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func() error {
//	    return index.Put(ctx, key, value)
//	})
package resilience
