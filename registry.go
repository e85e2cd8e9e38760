package restep

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
)

// Client is a registry of compiled endpoints sharing a transport.
// It also holds what the endpoints inherit: base URL, default protocol,
// named step functions, interceptors, logger and diagnostics sink.
//
// Endpoints capture the configuration in effect when they are compiled.
// Configuration methods and Register may be called concurrently.
type Client struct {
	mu           sync.RWMutex
	endpoints    map[string]*Endpoint
	transport    Transport
	baseURL      string
	protocol     Protocol
	stepFuncs    map[string]any
	interceptors []Interceptor
	logger       *slog.Logger
	diagnostics  DiagnosticSink
}

// NewClient returns a client dispatching with transport. A nil transport
// means NewHTTPTransport(nil).
func NewClient(transport Transport) *Client {
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}
	return &Client{
		endpoints: make(map[string]*Endpoint),
		transport: transport,
		protocol:  DefaultProtocol{},
		stepFuncs: make(map[string]any),
	}
}

// WithBaseURL sets the prefix concatenated in front of every resolved path.
// No separator is inserted or removed.
func (c *Client) WithBaseURL(base string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = base
	return c
}

// WithProtocol sets the default implementation of every step for endpoints
// registered on this client.
func (c *Client) WithProtocol(p Protocol) *Client {
	if p == nil {
		p = DefaultProtocol{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protocol = p
	return c
}

// WithStepFunc registers fn under name for use with Named overrides.
// fn must have the signature of the step it will be used for.
func (c *Client) WithStepFunc(name string, fn any) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepFuncs[name] = fn
	return c
}

// WithInterceptor adds a dispatch interceptor. Interceptors run in the order
// added, the first being outermost.
func (c *Client) WithInterceptor(i Interceptor) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, i)
	return c
}

// WithLogger sets a custom logger for the client.
// If not set, slog.Default() will be used.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
	return c
}

// WithDiagnostics sets the sink for call diagnostics. The default logs them
// at warn level with the client's logger.
func (c *Client) WithDiagnostics(sink DiagnosticSink) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = sink
	return c
}

// getLogger must be called with c.mu held.
func (c *Client) getLogger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func (c *Client) env() compileEnv {
	c.mu.RLock()
	defer c.mu.RUnlock()

	diagnostics := c.diagnostics
	if diagnostics == nil {
		diagnostics = LogDiagnostics(c.logger)
	}
	stepFuncs := make(map[string]any, len(c.stepFuncs))
	for k, v := range c.stepFuncs {
		stepFuncs[k] = v
	}
	return compileEnv{
		transport:    c.transport,
		baseURL:      c.baseURL,
		protocol:     c.protocol,
		stepFuncs:    stepFuncs,
		interceptors: append([]Interceptor(nil), c.interceptors...),
		diagnostics:  diagnostics,
	}
}

// Register compiles an endpoint and adds it to the client under name.
// If an endpoint is already registered under name, it is replaced and a
// warning is logged.
func (c *Client) Register(name, method string, opts ...EndpointOption) (*Endpoint, error) {
	e, err := compile(c.env(), name, method, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.endpoints[name]; exists {
		c.getLogger().Warn("duplicate endpoint registration",
			slog.String("endpoint", name),
			slog.String("method", e.method),
			slog.String("path", e.template.raw))
	}
	c.endpoints[name] = e
	return e, nil
}

// MustRegister is like Register but panics on error.
func (c *Client) MustRegister(name, method string, opts ...EndpointOption) *Endpoint {
	e, err := c.Register(name, method, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Get registers a GET endpoint.
func (c *Client) Get(name string, opts ...EndpointOption) (*Endpoint, error) {
	return c.Register(name, http.MethodGet, opts...)
}

// Post registers a POST endpoint.
func (c *Client) Post(name string, opts ...EndpointOption) (*Endpoint, error) {
	return c.Register(name, http.MethodPost, opts...)
}

// Put registers a PUT endpoint.
func (c *Client) Put(name string, opts ...EndpointOption) (*Endpoint, error) {
	return c.Register(name, http.MethodPut, opts...)
}

// Patch registers a PATCH endpoint.
func (c *Client) Patch(name string, opts ...EndpointOption) (*Endpoint, error) {
	return c.Register(name, http.MethodPatch, opts...)
}

// Delete registers a DELETE endpoint.
func (c *Client) Delete(name string, opts ...EndpointOption) (*Endpoint, error) {
	return c.Register(name, http.MethodDelete, opts...)
}

// Endpoint returns the endpoint registered under name.
func (c *Client) Endpoint(name string) (*Endpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.endpoints[name]
	return e, ok
}

// Endpoints returns all registered endpoints sorted by name.
func (c *Client) Endpoints() []*Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Endpoint, 0, len(c.endpoints))
	for _, e := range c.endpoints {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Call invokes the endpoint registered under name.
func (c *Client) Call(ctx context.Context, name string, args []any, opts ...CallOption) (any, error) {
	e, ok := c.Endpoint(name)
	if !ok {
		return nil, Errorf(CodeNotFound, "endpoint %q not registered", name)
	}
	return e.Call(ctx, args, opts...)
}

// String implements fmt.Stringer for debugging output.
func (c *Client) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("restep.Client{endpoints: %d, baseURL: %q}", len(c.endpoints), c.baseURL)
}
