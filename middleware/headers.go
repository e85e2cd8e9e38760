package middleware

import (
	"context"
	"strings"

	"github.com/broady/restep"
)

// HeadersConfig holds the headers DefaultHeaders adds to outgoing requests.
type HeadersConfig struct {
	// UserAgent is sent as User-Agent.
	// Default: "restep"
	UserAgent string

	// Authorization is sent as Authorization when non-empty.
	Authorization string

	// Extra holds further headers, added in order.
	Extra restep.Headers

	// Replace makes configured values overwrite headers already on the
	// request. By default a header the call already carries is left alone.
	Replace bool
}

// DefaultHeaders returns an interceptor that adds the configured headers to
// every request before it is dispatched. A nil cfg only sets User-Agent.
func DefaultHeaders(cfg *HeadersConfig) restep.Interceptor {
	if cfg == nil {
		cfg = &HeadersConfig{}
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = "restep"
	}

	add := restep.Headers{{Name: "User-Agent", Value: userAgent}}
	if cfg.Authorization != "" {
		add = append(add, restep.Header{Name: "Authorization", Value: cfg.Authorization})
	}
	add = append(add, cfg.Extra...)

	return func(ctx context.Context, req restep.Request, next restep.DispatchFunc) (any, error) {
		headers := req.Headers.Clone()
		for _, h := range add {
			switch {
			case cfg.Replace:
				headers = headers.Set(h.Name, h.Value)
			case !headers.Has(h.Name):
				headers = headers.Add(h.Name, h.Value)
			}
		}
		req.Headers = headers
		return next(ctx, req)
	}
}
