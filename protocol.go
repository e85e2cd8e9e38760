package restep

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Protocol supplies an implementation for every pipeline step.
//
// Request steps receive the request built so far and the step's input, and
// return the updated request. Response steps do the same for the response.
// ProcessResponse is the terminal step and sees the whole dispatch outcome.
// state is the call's state value.
//
// Embed DefaultProtocol to override only some steps.
type Protocol interface {
	ProcessURL(req Request, url string, state any) (Request, error)
	ProcessHeaders(req Request, headers Headers, state any) (Request, error)
	ProcessBody(req Request, body any, state any) (Request, error)
	ProcessResponseHeaders(resp Response, headers Headers, state any) (Response, error)
	ProcessResponseBody(resp Response, body any, state any) (Response, error)
	ProcessStatusCode(resp Response, status int, state any) (Response, error)
	ProcessResponse(out Outcome, req Request, state any) (Outcome, error)
}

// DefaultScheme is prepended by DefaultProtocol to URLs without a scheme.
const DefaultScheme = "http://"

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// DefaultProtocol implements Protocol with passthrough steps, except that
// ProcessURL adds DefaultScheme when the URL has none.
type DefaultProtocol struct{}

var _ Protocol = DefaultProtocol{}

func (DefaultProtocol) ProcessURL(req Request, url string, _ any) (Request, error) {
	req.URL = EnsureScheme(url)
	return req, nil
}

func (DefaultProtocol) ProcessHeaders(req Request, headers Headers, _ any) (Request, error) {
	req.Headers = headers
	return req, nil
}

func (DefaultProtocol) ProcessBody(req Request, body any, _ any) (Request, error) {
	req.Body = body
	return req, nil
}

func (DefaultProtocol) ProcessResponseHeaders(resp Response, headers Headers, _ any) (Response, error) {
	resp.Headers = headers
	return resp, nil
}

func (DefaultProtocol) ProcessResponseBody(resp Response, body any, _ any) (Response, error) {
	resp.Body = body
	return resp, nil
}

func (DefaultProtocol) ProcessStatusCode(resp Response, status int, _ any) (Response, error) {
	resp.Status = status
	return resp, nil
}

func (DefaultProtocol) ProcessResponse(out Outcome, _ Request, _ any) (Outcome, error) {
	return out, nil
}

// EnsureScheme returns url unchanged if it starts with "scheme://",
// otherwise DefaultScheme+url. No other normalisation happens, so a bare
// "/path" becomes "http:///path".
func EnsureScheme(url string) string {
	if schemePattern.MatchString(url) {
		return url
	}
	return DefaultScheme + url
}

// JSONProtocol sends JSON and decodes JSON responses.
// Content-Type (when there is a body) and Accept are added if missing.
// Response bodies are decoded into any when the response Content-Type
// mentions json.
type JSONProtocol struct {
	DefaultProtocol
}

func (JSONProtocol) ProcessHeaders(req Request, headers Headers, _ any) (Request, error) {
	if !headers.Has("Accept") {
		headers = headers.Add("Accept", "application/json")
	}
	req.Headers = headers
	return req, nil
}

func (JSONProtocol) ProcessBody(req Request, body any, _ any) (Request, error) {
	req.Body = body
	if body != nil && !req.Headers.Has("Content-Type") {
		req.Headers = req.Headers.Add("Content-Type", "application/json")
	}
	return req, nil
}

func (JSONProtocol) ProcessResponseBody(resp Response, body any, _ any) (Response, error) {
	raw, ok := body.([]byte)
	if !ok || len(raw) == 0 || !strings.Contains(resp.Headers.Get("Content-Type"), "json") {
		resp.Body = body
		return resp, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return resp, fmt.Errorf("decode json body: %w", err)
	}
	resp.Body = decoded
	return resp, nil
}

// DefaultRequestIDHeader is the header RequestIDProtocol writes.
const DefaultRequestIDHeader = "X-Request-Id"

// RequestIDProtocol wraps another protocol and tags every request with a
// fresh UUID header unless the caller already supplied one.
type RequestIDProtocol struct {
	Protocol
	Header string
}

// WithRequestID wraps inner (DefaultProtocol when nil) with request ids.
func WithRequestID(inner Protocol) RequestIDProtocol {
	if inner == nil {
		inner = DefaultProtocol{}
	}
	return RequestIDProtocol{Protocol: inner, Header: DefaultRequestIDHeader}
}

func (p RequestIDProtocol) ProcessHeaders(req Request, headers Headers, state any) (Request, error) {
	req, err := p.Protocol.ProcessHeaders(req, headers, state)
	if err != nil {
		return req, err
	}
	name := p.Header
	if name == "" {
		name = DefaultRequestIDHeader
	}
	if !req.Headers.Has(name) {
		req.Headers = req.Headers.Add(name, uuid.NewString())
	}
	return req, nil
}

// NormalizeResponse is a terminal step that tags the outcome: a response
// becomes Result{Response}, a transport error becomes
// Result{Err: *TransportError}. Other replies pass through unchanged.
func NormalizeResponse(out Outcome, _ Request, _ any) (Outcome, error) {
	if out.Err != nil {
		return Outcome{Reply: Result{Err: &TransportError{Err: out.Err}}}, nil
	}
	if resp, ok := asResponse(out.Reply); ok {
		return Outcome{Reply: Result{Response: &resp}}, nil
	}
	return out, nil
}

// StatusErrors is a terminal step that reports responses with a status of
// 400 or above as *Error while keeping the response as the reply.
func StatusErrors(out Outcome, req Request, _ any) (Outcome, error) {
	if out.Err != nil {
		return out, nil
	}
	resp, ok := asResponse(out.Reply)
	if !ok || resp.Status < 400 {
		return out, nil
	}
	text := http.StatusText(resp.Status)
	if text == "" {
		text = fmt.Sprintf("status %d", resp.Status)
	}
	err := Errorf(CodeForStatus(resp.Status), "%s %s: %s", req.Method, req.URL, text).
		WithDetail("status", resp.Status)
	return Outcome{Reply: out.Reply, Err: err}, nil
}
