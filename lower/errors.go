package lower

import "fmt"

// ConsistencyError reports input that violates the oracle or registry
// contracts. It is never recoverable: the lowering of the unit is aborted.
type ConsistencyError struct {
	Class  string
	Method string
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal compiler error in %s (class %s): %s", e.Method, e.Class, e.Reason)
}

func inconsistent(class, method, format string, args ...any) error {
	return &ConsistencyError{Class: class, Method: method, Reason: fmt.Sprintf(format, args...)}
}
