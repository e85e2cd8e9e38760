package restep

import (
	"context"
)

// DispatchFunc represents the next stage in an interceptor chain: another
// interceptor or, last, the transport.
type DispatchFunc func(ctx context.Context, req Request) (reply any, err error)

// Interceptor wraps dispatch of an assembled request.
//
//	func timing(ctx context.Context, req restep.Request, next restep.DispatchFunc) (any, error) {
//	    start := time.Now()
//	    reply, err := next(ctx, req)
//	    log.Printf("%s %s took %v", req.Method, req.URL, time.Since(start))
//	    return reply, err
//	}
//
// Interceptors see the request after the pre-dispatch steps and the raw
// transport reply before the response steps. They may observe, alter or
// replace either, or return an error without calling next.
type Interceptor func(ctx context.Context, req Request, next DispatchFunc) (reply any, err error)

// chainInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []Interceptor) Interceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, req Request, final DispatchFunc) (any, error) {
		// Chain: i[0] -> i[1] -> ... -> final
		next := final
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			inner := next
			next = func(ctx context.Context, req Request) (any, error) {
				return current(ctx, req, inner)
			}
		}
		return next(ctx, req)
	}
}
