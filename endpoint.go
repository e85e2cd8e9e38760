package restep

import (
	"context"
	"regexp"
	"strings"

	"github.com/broady/restep/internal/meta"
)

var methodPattern = regexp.MustCompile(`^[A-Za-z]+$`)

// EndpointOption configures an endpoint at registration time.
type EndpointOption func(*definition)

type definition struct {
	path          string
	args          []Arg
	protocol      Protocol
	stateSupplier func() any
	overrides     map[Step]Override
}

// WithPath sets the path template. Segments of the form ":name" are
// placeholders. The default is "/".
func WithPath(path string) EndpointOption {
	return func(d *definition) {
		d.path = path
	}
}

// WithArgs declares the positional arguments, in call order.
// Successive uses append.
func WithArgs(args ...Arg) EndpointOption {
	return func(d *definition) {
		d.args = append(d.args, args...)
	}
}

// WithProtocol sets an alternate protocol for every step this endpoint does
// not override explicitly.
func WithProtocol(p Protocol) EndpointOption {
	return func(d *definition) {
		d.protocol = p
	}
}

// WithStateSupplier sets a function that produces each call's state.
// It runs once per call unless the call supplies its own StateSupplier.
func WithStateSupplier(fn func() any) EndpointOption {
	return func(d *definition) {
		d.stateSupplier = fn
	}
}

// WithOverride sets the implementation of one step.
func WithOverride(step Step, o Override) EndpointOption {
	return func(d *definition) {
		if d.overrides == nil {
			d.overrides = make(map[Step]Override)
		}
		d.overrides[step] = o
	}
}

// WithNormalizedResponse makes NormalizeResponse the terminal step, so
// calls return a Result instead of a bare reply and transport error.
func WithNormalizedResponse() EndpointOption {
	return WithOverride(StepResponse, Inline(ResponseFunc(NormalizeResponse)))
}

// compileEnv is what the defining Client contributes to an endpoint.
type compileEnv struct {
	transport    Transport
	baseURL      string
	protocol     Protocol
	stepFuncs    map[string]any
	interceptors []Interceptor
	diagnostics  DiagnosticSink
}

// Endpoint is a compiled REST operation. It is immutable and safe for
// concurrent use.
type Endpoint struct {
	name          string
	method        string
	template      pathTemplate
	args          []Arg
	stateSupplier func() any
	pipeline      pipeline
	baseURL       string
	diagnostics   DiagnosticSink
	dispatch      func(ctx context.Context, req Request, opts Passthrough) (any, error)
}

// Compile builds a standalone endpoint that dispatches with transport,
// uses DefaultProtocol and logs diagnostics with slog.Default().
// Use Client.Register to share configuration between endpoints.
func Compile(name, method string, transport Transport, opts ...EndpointOption) (*Endpoint, error) {
	return compile(compileEnv{transport: transport}, name, method, opts)
}

func compile(env compileEnv, name, method string, opts []EndpointOption) (*Endpoint, error) {
	if strings.TrimSpace(name) == "" {
		return nil, compileErrorf(name, "empty name")
	}
	if !methodPattern.MatchString(method) {
		return nil, compileErrorf(name, "invalid method %q", method)
	}
	if env.transport == nil {
		return nil, compileErrorf(name, "nil transport")
	}

	d := definition{path: "/"}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}

	tmpl := parsePathTemplate(d.path)

	args := make([]Arg, len(d.args))
	seen := make(map[string]bool, len(d.args))
	for i, a := range d.args {
		if a.Name == "" {
			return nil, compileErrorf(name, "argument %d has no name", i)
		}
		if seen[a.Name] {
			return nil, compileErrorf(name, "duplicate argument %q", a.Name)
		}
		seen[a.Name] = true
		if a.validator != nil && a.validator.tag != "" {
			if err := CheckTag(a.validator.tag); err != nil {
				return nil, compileErrorf(name, "argument %q: %v", a.Name, err)
			}
		}
		if a.Placement == PlacementUnset {
			if tmpl.has(a.Name) {
				a.Placement = InPath
			} else {
				a.Placement = InQuery
			}
		}
		args[i] = a
	}

	for step := range d.overrides {
		if _, err := ParseStep(string(step)); err != nil {
			return nil, compileErrorf(name, "%v", err)
		}
	}

	p, err := resolvePipeline(name, env.protocol, d.protocol, d.overrides, env.stepFuncs)
	if err != nil {
		return nil, err
	}

	diagnostics := env.diagnostics
	if diagnostics == nil {
		diagnostics = LogDiagnostics(nil)
	}

	e := &Endpoint{
		name:          name,
		method:        strings.ToUpper(method),
		template:      tmpl,
		args:          args,
		stateSupplier: d.stateSupplier,
		pipeline:      p,
		baseURL:       env.baseURL,
		diagnostics:   diagnostics,
	}

	transport := env.transport
	chain := chainInterceptors(env.interceptors)
	if chain == nil {
		e.dispatch = transport.Do
	} else {
		e.dispatch = func(ctx context.Context, req Request, opts Passthrough) (any, error) {
			return chain(ctx, req, func(ctx context.Context, req Request) (any, error) {
				return transport.Do(ctx, req, opts)
			})
		}
	}
	return e, nil
}

// Name returns the registered name.
func (e *Endpoint) Name() string { return e.name }

// Method returns the HTTP method.
func (e *Endpoint) Method() string { return e.method }

// Path returns the path template.
func (e *Endpoint) Path() string { return e.template.raw }

// Arity returns the number of declared arguments.
func (e *Endpoint) Arity() int { return len(e.args) }

// Args returns the declared arguments with placements resolved.
func (e *Endpoint) Args() []Arg {
	return append([]Arg(nil), e.args...)
}

// Metadata returns a description of the endpoint for listings.
func (e *Endpoint) Metadata() *meta.EndpointMetadata {
	m := &meta.EndpointMetadata{
		Name:         e.name,
		Method:       e.method,
		Path:         e.template.raw,
		Placeholders: e.template.placeholders(),
	}
	for _, a := range e.args {
		m.Args = append(m.Args, meta.ArgMetadata{
			Name:      a.Name,
			Placement: a.Placement.String(),
			Validator: a.Description(),
		})
	}
	return m
}

// Call invokes the endpoint with one value per declared argument.
//
// Pre-dispatch failures (*ArityError, *ValidationError, *StepError, bad
// params) are returned before the transport is touched. Otherwise Call
// returns what the terminal step produced: by default the processed
// *Response, or the transport's own reply and error.
func (e *Endpoint) Call(ctx context.Context, args []any, opts ...CallOption) (any, error) {
	o := newCallOptions(opts)

	b, err := bind(e.name, e.args, args)
	if err != nil {
		return nil, err
	}

	path, leftover, diags := e.template.resolve(e.name, b.path)
	for _, d := range diags {
		e.diagnostics(ctx, d)
	}

	query := append(leftover, b.query...)
	in, err := assemble(e.baseURL, path, query, b.body, o)
	if err != nil {
		return nil, err
	}

	state := resolveState(e.stateSupplier, o)

	req, err := e.pipeline.buildRequest(e.name, e.method, in, state)
	if err != nil {
		return nil, err
	}

	ctx = newCallContext(ctx, &CallInfo{Endpoint: e.name, Method: e.method, Path: e.template.raw})
	reply, dispatchErr := e.dispatch(ctx, req, o.passthrough)

	return e.pipeline.processReply(e.name, req, reply, dispatchErr, state)
}

// Invoke is Call with the argument values spread. It takes no call options.
func (e *Endpoint) Invoke(ctx context.Context, args ...any) (any, error) {
	return e.Call(ctx, args)
}
