package gateway

import "fmt"

// CompletionBackendError wraps any failure of the completion backend, including cancellation
// and deadline expiry of the caller's context. The gateway does not retry.
type CompletionBackendError struct {
	Backend string
	Model   string
	Err     error
}

func (e *CompletionBackendError) Error() string {
	return fmt.Sprintf("completion backend %s (model %s): %v", e.Backend, e.Model, e.Err)
}

func (e *CompletionBackendError) Unwrap() error { return e.Err }
