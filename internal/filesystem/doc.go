/*
Package filesystem reads locally synced channel directories with retry logic
for NFS stale file handle errors.

# Purpose

Kiosks often play a channel that is synced onto a shared mount rather than
served over HTTP. Pointing PAGE_URL at a file:// URL makes the player read the
playlist and segments straight from disk through Transport, an
http.RoundTripper registered for the "file" scheme.

	t := http.DefaultTransport.(*http.Transport).Clone()
	filesystem.Register(t, filesystem.DefaultRetryConfig())
	client := &http.Client{Transport: t}

# Retry Behavior

Only ESTALE (errno 116) triggers a retry. Backoff is exponential:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

All other errors fail immediately. Missing files map to 404 and permission
errors to 403 so the playlist fetcher treats them like any HTTP failure.

# Metrics

Operations are reported through Observer, set once at startup with
SetObserver. The metrics package provides the Prometheus implementation.
*/
package filesystem
