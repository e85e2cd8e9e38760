package restep

import (
	"context"
	"fmt"
)

// The BindN helpers turn an endpoint into a typed function of N arguments.
// They panic when the endpoint does not declare exactly N arguments, so an
// arity mismatch surfaces where the binding is declared rather than at call
// time.

// Bind0 binds an endpoint with no arguments.
func Bind0(e *Endpoint) func(ctx context.Context, opts ...CallOption) (any, error) {
	mustArity(e, 0)
	return func(ctx context.Context, opts ...CallOption) (any, error) {
		return e.Call(ctx, nil, opts...)
	}
}

// Bind1 binds an endpoint with one argument.
func Bind1[A any](e *Endpoint) func(ctx context.Context, a A, opts ...CallOption) (any, error) {
	mustArity(e, 1)
	return func(ctx context.Context, a A, opts ...CallOption) (any, error) {
		return e.Call(ctx, []any{a}, opts...)
	}
}

// Bind2 binds an endpoint with two arguments.
func Bind2[A, B any](e *Endpoint) func(ctx context.Context, a A, b B, opts ...CallOption) (any, error) {
	mustArity(e, 2)
	return func(ctx context.Context, a A, b B, opts ...CallOption) (any, error) {
		return e.Call(ctx, []any{a, b}, opts...)
	}
}

// Bind3 binds an endpoint with three arguments.
func Bind3[A, B, C any](e *Endpoint) func(ctx context.Context, a A, b B, c C, opts ...CallOption) (any, error) {
	mustArity(e, 3)
	return func(ctx context.Context, a A, b B, c C, opts ...CallOption) (any, error) {
		return e.Call(ctx, []any{a, b, c}, opts...)
	}
}

// Bind4 binds an endpoint with four arguments.
func Bind4[A, B, C, D any](e *Endpoint) func(ctx context.Context, a A, b B, c C, d D, opts ...CallOption) (any, error) {
	mustArity(e, 4)
	return func(ctx context.Context, a A, b B, c C, d D, opts ...CallOption) (any, error) {
		return e.Call(ctx, []any{a, b, c, d}, opts...)
	}
}

func mustArity(e *Endpoint, n int) {
	if e == nil {
		panic("restep: bind of nil endpoint")
	}
	if e.Arity() != n {
		panic(fmt.Sprintf("restep: endpoint %q declares %d argument(s), bound with %d", e.name, e.Arity(), n))
	}
}
