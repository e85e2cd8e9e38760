package restep

import (
	"fmt"
	"strings"
)

// Step names one overridable stage of the processing pipeline.
type Step string

const (
	StepURL             Step = "url"
	StepHeaders         Step = "headers"
	StepBody            Step = "body"
	StepResponseHeaders Step = "response_headers"
	StepResponseBody    Step = "response_body"
	StepStatusCode      Step = "status_code"
	StepResponse        Step = "response"
)

// Steps lists every step in execution order.
var Steps = []Step{
	StepURL,
	StepHeaders,
	StepBody,
	StepResponseHeaders,
	StepResponseBody,
	StepStatusCode,
	StepResponse,
}

// ParseStep parses a step name.
func ParseStep(s string) (Step, error) {
	for _, step := range Steps {
		if string(step) == strings.TrimSpace(s) {
			return step, nil
		}
	}
	return "", fmt.Errorf("unknown step %q", s)
}

// Step function types, one per step. Override values must hold one of
// these, or a func literal with the same signature.
type (
	URLFunc             func(req Request, url string, state any) (Request, error)
	HeadersFunc         func(req Request, headers Headers, state any) (Request, error)
	BodyFunc            func(req Request, body any, state any) (Request, error)
	ResponseHeadersFunc func(resp Response, headers Headers, state any) (Response, error)
	ResponseBodyFunc    func(resp Response, body any, state any) (Response, error)
	StatusCodeFunc      func(resp Response, status int, state any) (Response, error)
	ResponseFunc        func(out Outcome, req Request, state any) (Outcome, error)
)

type overrideKind int

const (
	overrideDefault overrideKind = iota
	overrideNamed
	overrideModule
	overrideInline
)

// Override selects the implementation of one step for one endpoint.
// It is resolved once, when the endpoint is compiled.
type Override struct {
	kind   overrideKind
	name   string
	module Protocol
	fn     any
}

// Default leaves the step to the endpoint's protocol resolution.
func Default() Override {
	return Override{kind: overrideDefault}
}

// Named uses the step function registered on the defining Client under name
// (see Client.WithStepFunc).
func Named(name string) Override {
	return Override{kind: overrideNamed, name: name}
}

// On uses the given protocol's implementation of the step.
func On(p Protocol) Override {
	return Override{kind: overrideModule, module: p}
}

// Inline uses fn directly. fn must have the step's signature.
func Inline(fn any) Override {
	return Override{kind: overrideInline, fn: fn}
}

// pipeline holds the resolved implementation of every step.
type pipeline struct {
	url             URLFunc
	headers         HeadersFunc
	body            BodyFunc
	responseHeaders ResponseHeadersFunc
	responseBody    ResponseBodyFunc
	statusCode      StatusCodeFunc
	response        ResponseFunc
}

// resolvePipeline picks each step's implementation: an explicit override
// first, then the endpoint's protocol, then the defining client's protocol.
func resolvePipeline(endpoint string, base, alt Protocol, overrides map[Step]Override, named map[string]any) (pipeline, error) {
	proto := base
	if alt != nil {
		proto = alt
	}
	if proto == nil {
		proto = DefaultProtocol{}
	}

	p := pipeline{
		url:             proto.ProcessURL,
		headers:         proto.ProcessHeaders,
		body:            proto.ProcessBody,
		responseHeaders: proto.ProcessResponseHeaders,
		responseBody:    proto.ProcessResponseBody,
		statusCode:      proto.ProcessStatusCode,
		response:        proto.ProcessResponse,
	}

	for step, o := range overrides {
		if o.kind == overrideDefault {
			continue
		}
		fn, err := overrideSource(endpoint, step, o, named)
		if err != nil {
			return pipeline{}, err
		}
		if err := p.set(step, fn); err != nil {
			return pipeline{}, compileErrorf(endpoint, "%s step: %v", step, err)
		}
	}
	return p, nil
}

// overrideSource returns the function value an override refers to.
func overrideSource(endpoint string, step Step, o Override, named map[string]any) (any, error) {
	switch o.kind {
	case overrideInline:
		if o.fn == nil {
			return nil, compileErrorf(endpoint, "%s step: nil inline function", step)
		}
		return o.fn, nil
	case overrideNamed:
		fn, ok := named[o.name]
		if !ok {
			return nil, compileErrorf(endpoint, "%s step: no step function named %q", step, o.name)
		}
		return fn, nil
	case overrideModule:
		if o.module == nil {
			return nil, compileErrorf(endpoint, "%s step: nil protocol", step)
		}
		return protocolStep(o.module, step)
	default:
		return nil, compileErrorf(endpoint, "%s step: invalid override", step)
	}
}

func protocolStep(p Protocol, step Step) (any, error) {
	switch step {
	case StepURL:
		return URLFunc(p.ProcessURL), nil
	case StepHeaders:
		return HeadersFunc(p.ProcessHeaders), nil
	case StepBody:
		return BodyFunc(p.ProcessBody), nil
	case StepResponseHeaders:
		return ResponseHeadersFunc(p.ProcessResponseHeaders), nil
	case StepResponseBody:
		return ResponseBodyFunc(p.ProcessResponseBody), nil
	case StepStatusCode:
		return StatusCodeFunc(p.ProcessStatusCode), nil
	case StepResponse:
		return ResponseFunc(p.ProcessResponse), nil
	default:
		return nil, fmt.Errorf("unknown step %q", step)
	}
}

// set installs fn for step, accepting both the named func type and an
// unnamed func literal of the same signature.
func (p *pipeline) set(step Step, fn any) error {
	ok := false
	switch step {
	case StepURL:
		switch f := fn.(type) {
		case URLFunc:
			p.url, ok = f, true
		case func(Request, string, any) (Request, error):
			p.url, ok = f, true
		}
	case StepHeaders:
		switch f := fn.(type) {
		case HeadersFunc:
			p.headers, ok = f, true
		case func(Request, Headers, any) (Request, error):
			p.headers, ok = f, true
		}
	case StepBody:
		switch f := fn.(type) {
		case BodyFunc:
			p.body, ok = f, true
		case func(Request, any, any) (Request, error):
			p.body, ok = f, true
		}
	case StepResponseHeaders:
		switch f := fn.(type) {
		case ResponseHeadersFunc:
			p.responseHeaders, ok = f, true
		case func(Response, Headers, any) (Response, error):
			p.responseHeaders, ok = f, true
		}
	case StepResponseBody:
		switch f := fn.(type) {
		case ResponseBodyFunc:
			p.responseBody, ok = f, true
		case func(Response, any, any) (Response, error):
			p.responseBody, ok = f, true
		}
	case StepStatusCode:
		switch f := fn.(type) {
		case StatusCodeFunc:
			p.statusCode, ok = f, true
		case func(Response, int, any) (Response, error):
			p.statusCode, ok = f, true
		}
	case StepResponse:
		switch f := fn.(type) {
		case ResponseFunc:
			p.response, ok = f, true
		case func(Outcome, Request, any) (Outcome, error):
			p.response, ok = f, true
		}
	default:
		return fmt.Errorf("unknown step")
	}
	if !ok {
		return fmt.Errorf("function of type %T does not match the step signature", fn)
	}
	return nil
}

// buildRequest runs the pre-dispatch steps: url, headers, body.
func (p pipeline) buildRequest(endpoint, method string, in assembled, state any) (Request, error) {
	req := Request{Method: method}
	var err error
	if req, err = p.url(req, in.url, state); err != nil {
		return Request{}, &StepError{Endpoint: endpoint, Step: StepURL, Err: err}
	}
	if req, err = p.headers(req, in.headers, state); err != nil {
		return Request{}, &StepError{Endpoint: endpoint, Step: StepHeaders, Err: err}
	}
	if req, err = p.body(req, in.body, state); err != nil {
		return Request{}, &StepError{Endpoint: endpoint, Step: StepBody, Err: err}
	}
	return req, nil
}

// processReply runs the post-dispatch steps. Only a successful, response
// shaped reply goes through response headers, body and status code; every
// outcome then goes through the terminal step.
func (p pipeline) processReply(endpoint string, req Request, reply any, dispatchErr error, state any) (any, error) {
	out := Outcome{Reply: reply, Err: dispatchErr}

	if dispatchErr == nil {
		if raw, ok := asResponse(reply); ok {
			resp := raw
			var err error
			if resp, err = p.responseHeaders(resp, raw.Headers, state); err != nil {
				return nil, &StepError{Endpoint: endpoint, Step: StepResponseHeaders, Err: err}
			}
			if resp, err = p.responseBody(resp, raw.Body, state); err != nil {
				return nil, &StepError{Endpoint: endpoint, Step: StepResponseBody, Err: err}
			}
			if resp, err = p.statusCode(resp, raw.Status, state); err != nil {
				return nil, &StepError{Endpoint: endpoint, Step: StepStatusCode, Err: err}
			}
			out.Reply = &resp
		}
	}

	out, err := p.response(out, req, state)
	if err != nil {
		return nil, &StepError{Endpoint: endpoint, Step: StepResponse, Err: err}
	}
	return out.Reply, out.Err
}
