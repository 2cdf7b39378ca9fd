// internal/domain/cart/errors.go
package cart

import (
	"errors"
)

var (
	// ErrProductNotFound matches any failure to resolve a template id
	ErrProductNotFound = errors.New("template not found")
	// ErrInvalidSnapshot is returned when a persisted cart breaks a cart invariant
	ErrInvalidSnapshot = errors.New("invalid cart snapshot")
	// ErrCartUnavailable is returned when a saved cart exists but could not be read
	ErrCartUnavailable = errors.New("cart temporarily unavailable")
)

// ProductNotFoundError carries the id that could not be resolved
type ProductNotFoundError struct {
	ProductID string
	Err       error
}

func (e *ProductNotFoundError) Error() string {
	return "Template not found: " + e.ProductID
}

func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

func (e *ProductNotFoundError) Unwrap() error {
	return e.Err
}

// Result is the success/failure shape handed to UI callers
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ResultOf converts an operation error into a Result
func ResultOf(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{Success: false, Error: err.Error()}
}
