package extract

import "fmt"

// InputError rejects an upload before any field is read.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", e.Reason, e.Err)
	}
	return "extract: " + e.Reason
}

func (e *InputError) Unwrap() error {
	return e.Err
}
