package pkgdata

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPackage is returned by StaticQuerier for names it has no data for.
	ErrUnknownPackage = errors.New("package not found in pkgdata")
	// ErrUnknownVariable is returned by StaticQuerier for variables it does not model.
	ErrUnknownVariable = errors.New("unsupported pkgdata variable")
)

// LookupError reports a failed metadata query. All query kinds fail with this
// type so the resolver can treat them uniformly.
type LookupError struct {
	Query Query
	Name  string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("pkgdata %s %s: %v", e.Query, e.Name, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
