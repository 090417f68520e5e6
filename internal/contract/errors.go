package contract

import "fmt"

// SchemaError reports a malformed or unknown contract descriptor. It is a
// development-time bug, not a transient condition; callers must not retry.
type SchemaError struct {
	Contract string
	Reason   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("contract %q: %s", e.Contract, e.Reason)
}

func schemaErrf(contract, format string, args ...any) *SchemaError {
	return &SchemaError{Contract: contract, Reason: fmt.Sprintf(format, args...)}
}
