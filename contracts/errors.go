package contracts

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownTemplate = errors.New("contracts: unknown template")

// InputError reports values the user must correct before a contract can be filled.
type InputError struct {
	Template string
	Missing  []string // field keys, in catalog order
}

func (e *InputError) Error() string {
	return fmt.Sprintf("contracts: %s: missing required fields: %s", e.Template, strings.Join(e.Missing, ", "))
}
