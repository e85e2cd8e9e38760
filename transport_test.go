package restep

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/broady/restep/testutil"
)

func TestHTTPTransport_Do(t *testing.T) {
	resp := testutil.NewJSONResponse(t, http.StatusCreated, map[string]any{"id": 7})
	resp.Header.Add("X-B", "2")
	resp.Header.Add("X-A", "1")
	doer := testutil.NewFakeDoer(t, resp)
	tr := NewHTTPTransport(doer)

	reply, err := tr.Do(context.Background(), Request{
		Method:  "POST",
		URL:     "http://api.example.com/items?x=1",
		Body:    map[string]any{"name": "n"},
		Headers: Headers{{"Authorization", "Bearer t"}, {"X-Multi", "a"}, {"X-Multi", "b"}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := doer.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	r := reqs[0]
	if r.Method != "POST" || r.URL.String() != "http://api.example.com/items?x=1" {
		t.Errorf("unexpected request %s %s", r.Method, r.URL)
	}
	if r.Header.Get("Authorization") != "Bearer t" || len(r.Header.Values("X-Multi")) != 2 {
		t.Errorf("unexpected headers %v", r.Header)
	}
	if body := doer.Bodies()[0]; strings.TrimSpace(body) != `{"name":"n"}` {
		t.Errorf("expected JSON body, got %q", body)
	}

	got, ok := reply.(*Response)
	if !ok {
		t.Fatalf("expected *Response, got %T", reply)
	}
	if got.Status != http.StatusCreated {
		t.Errorf("expected 201, got %d", got.Status)
	}
	if string(got.Body.([]byte)) != `{"id":7}` {
		t.Errorf("unexpected body %q", got.Body)
	}
	var names []string
	for _, h := range got.Headers {
		names = append(names, h.Name)
	}
	if strings.Join(names, ",") != "Content-Type,X-A,X-B" {
		t.Errorf("expected headers sorted by name, got %v", names)
	}
	if _, ok := got.Raw.(*http.Response); !ok {
		t.Errorf("expected raw *http.Response, got %T", got.Raw)
	}
}

func TestHTTPTransport_RawBodies(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"nil", nil, ""},
		{"bytes", []byte("raw"), "raw"},
		{"string", "text", "text"},
		{"reader", strings.NewReader("stream"), "stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := testutil.NewFakeDoer(t, testutil.NewStringResponse(200, ""))
			if _, err := NewHTTPTransport(doer).Do(context.Background(), Request{Method: "PUT", URL: "http://x/", Body: tt.body}, nil); err != nil {
				t.Fatal(err)
			}
			if got := doer.Bodies()[0]; got != tt.want {
				t.Errorf("expected body %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHTTPTransport_DoerError(t *testing.T) {
	refused := errors.New("connection refused")
	doer := testutil.NewFakeDoer(t).FailWith(refused)

	_, err := NewHTTPTransport(doer).Do(context.Background(), Request{Method: "GET", URL: "http://x/"}, nil)
	if !errors.Is(err, refused) {
		t.Errorf("expected doer error, got %v", err)
	}
}

func TestHTTPTransport_BadURL(t *testing.T) {
	doer := testutil.NewFakeDoer(t)
	_, err := NewHTTPTransport(doer).Do(context.Background(), Request{Method: "GET", URL: "http://[::1"}, nil)
	if err == nil {
		t.Error("expected error for malformed URL")
	}
	if len(doer.Requests()) != 0 {
		t.Error("expected no request to be sent")
	}
}

// deadlineDoer reports whether the request context carried a deadline.
type deadlineDoer struct {
	hadDeadline bool
}

func (d *deadlineDoer) Do(req *http.Request) (*http.Response, error) {
	_, d.hadDeadline = req.Context().Deadline()
	return &http.Response{StatusCode: 204, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
}

func TestHTTPTransport_TimeoutPassthrough(t *testing.T) {
	d := &deadlineDoer{}
	tr := NewHTTPTransport(d)

	if _, err := tr.Do(context.Background(), Request{Method: "GET", URL: "http://x/"}, nil); err != nil {
		t.Fatal(err)
	}
	if d.hadDeadline {
		t.Error("expected no deadline without a timeout option")
	}

	opts := Passthrough{PassthroughTimeout: time.Second}
	if _, err := tr.Do(context.Background(), Request{Method: "GET", URL: "http://x/"}, opts); err != nil {
		t.Fatal(err)
	}
	if !d.hadDeadline {
		t.Error("expected a deadline from the timeout option")
	}
}

func TestHTTPTransport_EndToEndJSON(t *testing.T) {
	doer := testutil.NewFakeDoer(t, testutil.NewJSONResponse(t, 200, map[string]any{"name": "ada"}))
	var diags []Diagnostic
	c := quietClient(NewHTTPTransport(doer), &diags).
		WithBaseURL("https://api.example.com").
		WithProtocol(JSONProtocol{})

	e := must(c.Get("get_user", WithPath("/users/:id"), WithArgs(NewArg("id"))))
	reply, err := e.Invoke(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := doer.Requests()[0].URL.String(); got != "https://api.example.com/users/42" {
		t.Errorf("unexpected url %q", got)
	}
	resp := reply.(*Response)
	body, ok := resp.Body.(map[string]any)
	if !ok || body["name"] != "ada" {
		t.Errorf("expected decoded JSON body, got %#v", resp.Body)
	}
}
