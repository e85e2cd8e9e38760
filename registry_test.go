package restep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNewClient(t *testing.T) {
	c := NewClient(nil)
	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if _, ok := c.transport.(*HTTPTransport); !ok {
		t.Errorf("expected default HTTPTransport, got %T", c.transport)
	}
	if c.endpoints == nil {
		t.Error("expected endpoints map to be initialized")
	}
}

func TestClient_WithInterceptor(t *testing.T) {
	i := func(ctx context.Context, req Request, next DispatchFunc) (any, error) {
		return next(ctx, req)
	}
	c := NewClient(newRecordingTransport()).WithInterceptor(i).WithInterceptor(i)
	if len(c.interceptors) != 2 {
		t.Errorf("expected 2 interceptors, got %d", len(c.interceptors))
	}
}

func TestClient_WithProtocolNil(t *testing.T) {
	c := NewClient(newRecordingTransport()).WithProtocol(nil)
	if _, ok := c.protocol.(DefaultProtocol); !ok {
		t.Errorf("expected DefaultProtocol, got %T", c.protocol)
	}
}

func TestClient_RegisterAndCall(t *testing.T) {
	tr := newRecordingTransport()
	var diags []Diagnostic
	c := quietClient(tr, &diags).WithBaseURL("https://api.example.com")

	if _, err := c.Get("get_user", WithPath("/users/:id"), WithArgs(NewArg("id"))); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Delete("delete_user", WithPath("/users/:id"), WithArgs(NewArg("id"))); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Call(context.Background(), "delete_user", []any{"u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := tr.last()
	if req.Method != "DELETE" || req.URL != "https://api.example.com/users/u1" {
		t.Errorf("unexpected request %s %s", req.Method, req.URL)
	}

	names := []string{}
	for _, e := range c.Endpoints() {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "delete_user,get_user" {
		t.Errorf("expected sorted endpoints, got %v", names)
	}
}

func TestClient_CallUnknown(t *testing.T) {
	c := NewClient(newRecordingTransport())
	_, err := c.Call(context.Background(), "missing", nil)
	if CodeOf(err) != CodeNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestClient_DuplicateRegistrationReplaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	tr := newRecordingTransport()
	c := NewClient(tr).WithLogger(logger)

	if _, err := c.Get("ep", WithPath("/old")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("ep", WithPath("/new")); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "duplicate endpoint registration") {
		t.Errorf("expected duplicate warning, got %q", buf.String())
	}
	e, _ := c.Endpoint("ep")
	if e.Path() != "/new" {
		t.Errorf("expected replacement endpoint, got path %q", e.Path())
	}
}

func TestClient_RegisterError(t *testing.T) {
	c := NewClient(newRecordingTransport())
	_, err := c.Register("bad", "G3T")
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompileError, got %v", err)
	}
	if _, ok := c.Endpoint("bad"); ok {
		t.Error("expected failed registration to leave no endpoint")
	}
}

func TestClient_MustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewClient(newRecordingTransport()).MustRegister("", "GET")
}

func TestClient_NamedStepFunc(t *testing.T) {
	tr := newRecordingTransport()
	var diags []Diagnostic
	c := quietClient(tr, &diags).WithStepFunc("tenant", HeadersFunc(func(req Request, h Headers, state any) (Request, error) {
		req.Headers = h.Add("X-Tenant", state.(string))
		return req, nil
	}))

	e, err := c.Get("ep", WithOverride(StepHeaders, Named("tenant")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Call(context.Background(), nil, State("acme")); err != nil {
		t.Fatal(err)
	}
	if got := tr.last().Headers.Get("X-Tenant"); got != "acme" {
		t.Errorf("expected tenant header, got %q", got)
	}
}

func TestClient_ConfigCapturedAtRegistration(t *testing.T) {
	tr := newRecordingTransport()
	var diags []Diagnostic
	c := quietClient(tr, &diags).WithBaseURL("http://one")
	e := must(c.Get("ep"))
	c.WithBaseURL("http://two")

	if _, err := e.Invoke(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.last().URL != "http://one/" {
		t.Errorf("expected base URL captured at registration, got %q", tr.last().URL)
	}
}

func TestClient_DefaultDiagnosticsUseLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := NewClient(newRecordingTransport()).WithLogger(logger)
	e := must(c.Get("ep", WithPath("/a/:id")))

	if _, err := e.Invoke(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"kind":"path_argument_not_found"`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("expected warn diagnostic in log, got %q", out)
	}
}

func TestClient_String(t *testing.T) {
	c := NewClient(newRecordingTransport()).WithBaseURL("http://x")
	must(c.Get("ep"))
	if got := c.String(); got != `restep.Client{endpoints: 1, baseURL: "http://x"}` {
		t.Errorf("unexpected String() %q", got)
	}
}

func TestClient_ConfigureWhileRegistering(t *testing.T) {
	c := NewClient(newRecordingTransport()).WithDiagnostics(func(context.Context, Diagnostic) {})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.WithStepFunc(fmt.Sprintf("fn%d", i), URLFunc(DefaultProtocol{}.ProcessURL)).
				WithInterceptor(func(ctx context.Context, req Request, next DispatchFunc) (any, error) {
					return next(ctx, req)
				}).
				WithBaseURL("http://x")
		}(i)
		go func(i int) {
			defer wg.Done()
			if _, err := c.Get(fmt.Sprintf("ep%d", i)); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := len(c.Endpoints()); got != 20 {
		t.Errorf("expected 20 endpoints, got %d", got)
	}
}
