package restep

import (
	"context"
	"sync"
)

// recordingTransport records every dispatched request and answers with a
// fixed reply.
type recordingTransport struct {
	mu       sync.Mutex
	requests []Request
	opts     []Passthrough

	reply any
	err   error
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{reply: &Response{Status: 200, Headers: Headers{}}}
}

func (t *recordingTransport) Do(_ context.Context, req Request, opts Passthrough) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	t.opts = append(t.opts, opts)
	return t.reply, t.err
}

func (t *recordingTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

func (t *recordingTransport) last() Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return Request{}
	}
	return t.requests[len(t.requests)-1]
}

// quietClient returns a client whose diagnostics are collected into diags.
func quietClient(transport Transport, diags *[]Diagnostic) *Client {
	return NewClient(transport).WithDiagnostics(CollectDiagnostics(diags))
}
