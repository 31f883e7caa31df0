package repository

import "errors"

var (
	// ErrUpstreamUnavailable is a transient provider failure: network error, throttling or a 5xx.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamRejected is a permanent provider failure: unknown symbol, bad range or another 4xx.
	ErrUpstreamRejected = errors.New("upstream rejected request")
)
