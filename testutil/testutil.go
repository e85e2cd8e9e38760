// Package testutil provides testing helpers for code that sends HTTP requests
// through an HTTPDoer. It imports nothing from restep so that any package,
// restep included, can use it from tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

// FakeDoer implements restep.HTTPDoer so callers can run tests without
// making outbound HTTP requests.
type FakeDoer struct {
	t         testing.TB
	mu        sync.Mutex
	responses []*http.Response
	errs      []error
	requests  []*http.Request
	bodies    []string
}

// NewFakeDoer returns a FakeDoer seeded with the responses that should be
// returned for each Do call.
func NewFakeDoer(t testing.TB, responses ...*http.Response) *FakeDoer {
	return &FakeDoer{
		t:         t,
		responses: append([]*http.Response(nil), responses...),
	}
}

// FailWith queues an error to be returned by the next Do call that finds no
// queued response.
func (f *FakeDoer) FailWith(err error) *FakeDoer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
	return f
}

// Do records the request and its body, then returns the next queued
// response or error.
func (f *FakeDoer) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			f.t.Fatalf("fake http client: read request body: %v", err)
		}
		body = string(data)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)
	if len(f.responses) == 0 {
		if len(f.errs) > 0 {
			err := f.errs[0]
			f.errs = f.errs[1:]
			return nil, err
		}
		f.t.Fatalf("fake http client has no responses left for request %s %s", req.Method, req.URL.String())
		return nil, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	resp.Request = req
	return resp, nil
}

// Requests returns the HTTP requests captured so far.
func (f *FakeDoer) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

// Bodies returns the request bodies captured so far, in request order.
func (f *FakeDoer) Bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

// NewStringResponse builds a minimal http.Response with the provided status
// code and body string.
func NewStringResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// NewJSONResponse builds an http.Response with v encoded as a JSON body
// and a JSON Content-Type.
func NewJSONResponse(t testing.TB, status int, v any) *http.Response {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to encode json response: %v", err)
	}
	resp := NewStringResponse(status, string(data))
	resp.Header.Set("Content-Type", "application/json")
	return resp
}
