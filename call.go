package restep

// Passthrough holds transport-specific call options. The pipeline never
// interprets them.
type Passthrough map[string]any

// CallOption configures a single call.
type CallOption func(*callOptions)

type callOptions struct {
	params        any
	body          any
	bodySet       bool
	headers       Headers
	state         any
	stateSupplier func() any
	passthrough   Passthrough
}

func newCallOptions(opts []CallOption) *callOptions {
	o := &callOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Params sets extra query parameters: a map[string]any, map[string]string,
// url.Values or a struct with `schema` tags. Declared arguments of the same
// name take precedence.
func Params(params any) CallOption {
	return func(o *callOptions) {
		o.params = params
	}
}

// Body sets the call-time request body. See the package documentation for
// how it combines with declared body arguments.
func Body(body any) CallOption {
	return func(o *callOptions) {
		o.body = body
		o.bodySet = true
	}
}

// WithHeaders sets the request headers for this call. Successive uses
// append.
func WithHeaders(h ...Header) CallOption {
	return func(o *callOptions) {
		o.headers = append(o.headers, h...)
	}
}

// State sets the per-call state used when no state supplier is in effect.
func State(state any) CallOption {
	return func(o *callOptions) {
		o.state = state
	}
}

// StateSupplier overrides the endpoint's state supplier for this call.
func StateSupplier(fn func() any) CallOption {
	return func(o *callOptions) {
		o.stateSupplier = fn
	}
}

// WithPassthrough forwards a transport-specific option verbatim.
func WithPassthrough(key string, value any) CallOption {
	return func(o *callOptions) {
		if o.passthrough == nil {
			o.passthrough = Passthrough{}
		}
		o.passthrough[key] = value
	}
}

// resolveState picks the call's state: a call-time supplier beats the
// endpoint's supplier, and either beats a plain call-time value.
// Whichever supplier is chosen runs exactly once.
func resolveState(endpointSupplier func() any, o *callOptions) any {
	switch {
	case o.stateSupplier != nil:
		return o.stateSupplier()
	case endpointSupplier != nil:
		return endpointSupplier()
	default:
		return o.state
	}
}
