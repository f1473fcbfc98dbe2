package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Domain errors returned by the registry, the catalog and the order engine
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrInvalidOrder         = errors.New("invalid orderId")
	ErrUnknownProduct       = errors.New("one or more invalid product ids")
	ErrDuplicateAccount     = errors.New("account with that email already exists")
	ErrOrderFinalized       = errors.New("cannot amend a finalized order")
	ErrAccountNotRegistered = errors.New("account not registered")
)

// UnknownProductError lists product ids that are not in the catalog
type UnknownProductError struct {
	IDs []int64
}

func (e *UnknownProductError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s: %s", ErrUnknownProduct.Error(), strings.Join(ids, ", "))
}

// Is reports UnknownProductError as ErrUnknownProduct
func (e *UnknownProductError) Is(target error) bool {
	return target == ErrUnknownProduct
}

// InvalidInputf wraps ErrInvalidInput with a formatted reason
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
