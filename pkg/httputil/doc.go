// Package httputil provides the outbound HTTP plumbing shared by
// extractors and registry clients.
//
// # Overview
//
//   - [NewClient]: an *http.Client whose connection phase is bounded by a
//     short timeout (default one second), independent of any batch deadline
//   - [Get]: a single GET returning the live response, or an error
//     wrapping [ErrTimeout] when the request timed out
//   - [Prober]: memoized "does this URL answer 200" checks used for
//     standard-library classification
//   - [Retry]: retry with exponential backoff for registry lookups
//
// # Probing
//
// A [Prober] remembers results in a [cache.Cache] and collapses concurrent
// probes of the same URL into one request:
//
//	p := httputil.NewProber(httputil.ProberOptions{Cache: c})
//	ok, err := p.Exists(ctx, "https://docs.python.org/3/library/os.html")
//
// Network failures are reported as (false, err) and are never cached, so
// a later scan with connectivity can still classify the symbol.
//
// # Retry
//
// Only errors wrapped in [RetryableError] are retried:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := fetch()
//	    if isTransient(err) {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return err
//	})
package httputil
