package sheets

import (
	"errors"

	"github.com/valyala/fasthttp"
)

var (
	// ErrBadRequest marks the non-retryable class: the request itself is
	// wrong (malformed range, bad argument) and retrying cannot help.
	ErrBadRequest = errors.New("sheets: bad request")

	// ErrTransient marks infrastructure failures (network, timeout, rate
	// limit, server error) that the retry wrapper may retry.
	ErrTransient = errors.New("sheets: transient error")
)

func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == fasthttp.StatusBadRequest,
		status == fasthttp.StatusUnauthorized,
		status == fasthttp.StatusForbidden,
		status == fasthttp.StatusNotFound:
		return ErrBadRequest
	default:
		// 408, 429 and 5xx all land here.
		return ErrTransient
	}
}
