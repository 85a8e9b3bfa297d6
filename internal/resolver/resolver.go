// Package resolver looks up the public address of this machine.
package resolver

import "context"

// DefaultURL is an echo service answering with the caller's address
const DefaultURL = "https://ifconfig.me/"

// Resolver returns the current public address
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Func adapts a function to a Resolver
type Func func(ctx context.Context) (string, error)

// Resolve calls f
func (f Func) Resolve(ctx context.Context) (string, error) {
	return f(ctx)
}
