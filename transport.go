package restep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Transport executes an assembled request.
//
// A nil error with a *Response (or Response) reply runs the response steps.
// Any other reply is passed to the terminal step untouched. Blocking,
// timeouts and cancellation are the transport's business.
type Transport interface {
	Do(ctx context.Context, req Request, opts Passthrough) (any, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request, opts Passthrough) (any, error)

func (f TransportFunc) Do(ctx context.Context, req Request, opts Passthrough) (any, error) {
	return f(ctx, req, opts)
}

// HTTPDoer captures the subset of *http.Client HTTPTransport relies on.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PassthroughTimeout is the Passthrough key HTTPTransport reads a
// time.Duration request timeout from.
const PassthroughTimeout = "timeout"

// HTTPTransport sends requests with an HTTPDoer.
//
// Request bodies: nil sends nothing; []byte, string and io.Reader are sent
// raw; anything else is encoded as JSON. The response body is read fully
// into a []byte and Raw holds the *http.Response.
type HTTPTransport struct {
	Doer HTTPDoer
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport returns an HTTPTransport using doer, or
// http.DefaultClient when doer is nil.
func NewHTTPTransport(doer HTTPDoer) *HTTPTransport {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &HTTPTransport{Doer: doer}
}

func (t *HTTPTransport) Do(ctx context.Context, req Request, opts Passthrough) (any, error) {
	if d, ok := opts[PassthroughTimeout].(time.Duration); ok && d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	body, err := encodeHTTPBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}

	doer := t.Doer
	if doer == nil {
		doer = http.DefaultClient
	}
	httpResp, err := doer.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	names := make([]string, 0, len(httpResp.Header))
	for name := range httpResp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	headers := make(Headers, 0, len(names))
	for _, name := range names {
		for _, v := range httpResp.Header[name] {
			headers = headers.Add(name, v)
		}
	}

	return &Response{
		Status:  httpResp.StatusCode,
		Headers: headers,
		Body:    data,
		Raw:     httpResp,
	}, nil
}

func encodeHTTPBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return &buf, nil
	}
}
