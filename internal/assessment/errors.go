package assessment

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a record or condition is missing.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned by InsertSubmission when the id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError reports malformed input rejected before scoring.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// CatalogUnavailableError wraps an I/O failure of the catalog or result store.
type CatalogUnavailableError struct {
	Op  string
	Err error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog unavailable: %s: %v", e.Op, e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var cu *CatalogUnavailableError
	if errors.As(err, &cu) {
		return err
	}
	return &CatalogUnavailableError{Op: op, Err: err}
}
