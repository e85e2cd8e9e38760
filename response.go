package restep

import "strings"

// Header is a single request or response header line.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of header lines. Names keep the case they were
// added with; lookups are case-insensitive.
type Headers []Header

// Get returns the first value for name, or "" if absent.
func (h Headers) Get(name string) string {
	for _, kv := range h {
		if strings.EqualFold(kv.Name, name) {
			return kv.Value
		}
	}
	return ""
}

// Values returns every value for name in order.
func (h Headers) Values(name string) []string {
	var out []string
	for _, kv := range h {
		if strings.EqualFold(kv.Name, name) {
			out = append(out, kv.Value)
		}
	}
	return out
}

// Has reports whether any line has the given name.
func (h Headers) Has(name string) bool {
	for _, kv := range h {
		if strings.EqualFold(kv.Name, name) {
			return true
		}
	}
	return false
}

// Add appends a header line and returns the extended list.
func (h Headers) Add(name, value string) Headers {
	return append(h, Header{Name: name, Value: value})
}

// Set replaces all lines named name with a single line.
// The new line takes the position of the first removed one, or goes last.
func (h Headers) Set(name, value string) Headers {
	out := make(Headers, 0, len(h)+1)
	placed := false
	for _, kv := range h {
		if strings.EqualFold(kv.Name, name) {
			if !placed {
				out = append(out, Header{Name: name, Value: value})
				placed = true
			}
			continue
		}
		out = append(out, kv)
	}
	if !placed {
		out = append(out, Header{Name: name, Value: value})
	}
	return out
}

// Del removes every line named name.
func (h Headers) Del(name string) Headers {
	out := make(Headers, 0, len(h))
	for _, kv := range h {
		if !strings.EqualFold(kv.Name, name) {
			out = append(out, kv)
		}
	}
	return out
}

// Clone returns a copy that shares nothing with h.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	return append(Headers(nil), h...)
}

// Request is the outgoing request built for one call.
// A Request belongs to the call that assembled it and is never shared.
type Request struct {
	Method  string
	URL     string
	Body    any
	Headers Headers
}

// Response is what a Transport returns on success.
//
// Body is whatever the transport produced ([]byte for HTTPTransport) until a
// response-body step replaces it. Raw optionally carries the transport's own
// response value (for HTTPTransport, the *http.Response with a drained body).
type Response struct {
	Status  int
	Headers Headers
	Body    any
	Raw     any
}

// Outcome is the result of dispatch as seen by the terminal step.
// Reply is the processed *Response, or whatever non-response value the
// transport produced. Err is the transport failure, if any.
type Outcome struct {
	Reply any
	Err   error
}

// Result is the tagged success or failure produced by NormalizeResponse.
type Result struct {
	Response *Response
	Err      error
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Err == nil
}

// asResponse reports whether reply is structurally a response.
func asResponse(reply any) (Response, bool) {
	switch r := reply.(type) {
	case *Response:
		if r == nil {
			return Response{}, false
		}
		return *r, true
	case Response:
		return r, true
	default:
		return Response{}, false
	}
}
