package processor

import "errors"

var (
	ErrServiceUnavailable = errors.New("oracle service is unavailable")
	ErrRequestRejected    = errors.New("oracle rejected the request")
	ErrMalformedResponse  = errors.New("oracle returned a malformed response")
)
