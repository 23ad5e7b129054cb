// Package httputil provides the HTTP plumbing behind the artifact fetcher.
//
// # Overview
//
//   - [Client]: GET requests with status classification and HTTP hooks
//   - [Retry]: automatic retry with exponential backoff
//
// # Error classification
//
// [Client.Get] maps responses onto the jarmill error codes:
//
//   - 200: success
//   - 404: NOT_FOUND, never retried
//   - 429 and 5xx: NETWORK_ERROR, wrapped in [RetryableError]
//   - other statuses: NETWORK_ERROR, not retried
//   - transport failures: NETWORK_ERROR, wrapped in [RetryableError]
//
// # Retry
//
// [Retry] only retries errors wrapped in [RetryableError]. Retries belong
// to the fetcher; the pipeline stages themselves never retry.
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return download(ctx, url, dest)
//	})
package httputil
