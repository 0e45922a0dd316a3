// Package httputil provides HTTP utilities for the remote package fetcher.
//
// # Overview
//
//   - [Do] and [Retry]: automatic retry with capped exponential backoff
//   - [HostLimiter]: per-host request rate limiting
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures.
// Only errors wrapped in [RetryableError] are retried:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Use [RetryableStatus] to decide whether a response status is transient and
// [RetryAfter] to honour a server's requested wait. [Do] takes a [Policy]
// with a backoff ceiling and an OnRetry hook for logging.
//
// # Rate limiting
//
// [HostLimiter] keeps one token bucket per host so that browsing a crate
// with many nested packages on the same server does not flood it.
package httputil
