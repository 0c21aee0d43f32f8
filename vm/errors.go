package vm

import "fmt"

// ActionLimitError signals that a script exceeded a resource limit, such
// as the prototype lookup depth or the call recursion depth. It is raised
// with panic and recovered by the action scheduler, which unwinds only the
// action being executed.
type ActionLimitError struct {
	Limit   string
	Maximum int
}

func (e *ActionLimitError) Error() string {
	return fmt.Sprintf("%s exceeded (limit %d)", e.Limit, e.Maximum)
}

func throwActionLimit(limit string, max int) {
	panic(&ActionLimitError{Limit: limit, Maximum: max})
}
