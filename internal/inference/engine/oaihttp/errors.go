package oaihttp

import (
	"errors"
	"fmt"
)

var ErrEmptyCompletion = errors.New("empty upstream completion")

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, truncate(e.Body, 512))
}

// Retryable reports whether the status is worth retrying by the caller (rate limits, 5xx).
func (e *HTTPError) Retryable() bool {
	return e != nil && (e.StatusCode == 429 || e.StatusCode >= 500)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
