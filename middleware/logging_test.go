package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/broady/restep"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestLoggingInterceptor_Success(t *testing.T) {
	var buf bytes.Buffer
	tr := restep.TransportFunc(func(ctx context.Context, req restep.Request, _ restep.Passthrough) (any, error) {
		return &restep.Response{Status: 200}, nil
	})
	c := restep.NewClient(tr).WithInterceptor(LoggingInterceptor(newTestLogger(&buf)))
	if _, err := c.Get("get_user", restep.WithPath("/users/:id"), restep.WithArgs(restep.NewArg("id"))); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Call(context.Background(), "get_user", []any{1}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request started") {
		t.Error("expected 'request started' in log output")
	}
	if !strings.Contains(logOutput, "request completed") {
		t.Error("expected 'request completed' in log output")
	}
	if !strings.Contains(logOutput, `"endpoint":"get_user"`) {
		t.Error("expected endpoint name in log output")
	}
	if !strings.Contains(logOutput, `"url":"http:///users/1"`) {
		t.Error("expected url in log output")
	}
	if !strings.Contains(logOutput, `"status":200`) {
		t.Error("expected status in log output")
	}
}

func TestLoggingInterceptor_Error(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingInterceptor(newTestLogger(&buf))

	testErr := errors.New("test error")
	_, err := interceptor(context.Background(), restep.Request{Method: "GET", URL: "http://x/"},
		func(ctx context.Context, req restep.Request) (any, error) {
			return nil, testErr
		})

	if !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request failed") {
		t.Error("expected 'request failed' in log output")
	}
	if !strings.Contains(logOutput, `"code":"unknown"`) {
		t.Error("expected error code in log output")
	}
	if !strings.Contains(logOutput, `"level":"ERROR"`) {
		t.Error("expected ERROR level in log output")
	}
}

func TestLoggingInterceptor_NonResponseReply(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingInterceptor(newTestLogger(&buf))

	reply, err := interceptor(context.Background(), restep.Request{},
		func(ctx context.Context, req restep.Request) (any, error) {
			return "opaque", nil
		})
	if err != nil || reply != "opaque" {
		t.Errorf("expected reply to pass through, got %v, %v", reply, err)
	}
	if strings.Contains(buf.String(), `"status"`) {
		t.Error("expected no status for a non-response reply")
	}
}
