package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/broady/restep"
)

// LoggingInterceptor creates an interceptor that logs dispatched calls using slog.
// It logs the start and end of each call, including duration and error status.
func LoggingInterceptor(logger *slog.Logger) restep.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req restep.Request, next restep.DispatchFunc) (any, error) {
		start := time.Now()

		endpoint := ""
		if info, ok := restep.CallInfoFromContext(ctx); ok {
			endpoint = info.Endpoint
		}

		logger.InfoContext(ctx, "request started",
			slog.String("endpoint", endpoint),
			slog.String("method", req.Method),
			slog.String("url", req.URL),
		)

		reply, err := next(ctx, req)
		duration := time.Since(start)

		if err != nil {
			logger.ErrorContext(ctx, "request failed",
				slog.String("endpoint", endpoint),
				slog.Duration("duration", duration),
				slog.String("code", string(restep.CodeOf(err))),
				slog.Any("error", err),
			)
			return reply, err
		}

		attrs := []any{
			slog.String("endpoint", endpoint),
			slog.Duration("duration", duration),
		}
		if resp, ok := reply.(*restep.Response); ok && resp != nil {
			attrs = append(attrs, slog.Int("status", resp.Status))
		}
		logger.InfoContext(ctx, "request completed", attrs...)

		return reply, err
	}
}
