package scoring

import "fmt"

// UnknownConditionError is returned when a targeted condition is not in
// the catalog.
type UnknownConditionError struct {
	Name string
}

func (e *UnknownConditionError) Error() string {
	return fmt.Sprintf("unknown condition %q", e.Name)
}
