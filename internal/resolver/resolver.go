package resolver

import "context"

// Resolver decides whether the runtime dependency tree of a package admits at
// least one outbound license once prohibited licenses are removed.
//
// A package without a compatible license is a normal negative Result, not an
// error. Errors are reserved for cancellation and solver failures.
type Resolver interface {
	Resolve(ctx context.Context, in Input) (Result, error)
}
