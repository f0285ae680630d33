package repair

import (
	"fmt"
)

// UnrepairableResponseError means every repair pass failed. Raw is the completion exactly as
// the backend returned it; Causes holds one error per attempted pass.
type UnrepairableResponseError struct {
	Raw    string
	Causes []error
}

func (e *UnrepairableResponseError) Error() string {
	return fmt.Sprintf("unrepairable response (%d bytes, %d passes failed)", len(e.Raw), len(e.Causes))
}

func (e *UnrepairableResponseError) Unwrap() []error { return e.Causes }
