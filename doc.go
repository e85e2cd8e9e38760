// Package restep compiles declarative REST endpoint descriptions into
// callable functions.
//
// An endpoint is declared once with a method, a path template, ordered
// arguments and optional processing overrides:
//
//	client := restep.NewClient(restep.NewHTTPTransport(nil)).
//		WithBaseURL("https://api.example.com")
//
//	getUser := client.MustRegister("get_user", "GET",
//		restep.WithPath("/users/:id"),
//		restep.WithArgs(
//			restep.NewArg("id").Validate("gt=0"),
//			restep.QueryArg("fields"),
//		),
//	)
//
//	reply, err := getUser.Call(ctx, []any{42, "name,email"})
//
// # Calls
//
// Each call binds its values positionally to the declared arguments and runs
// their validators. A failing validator returns *ValidationError and nothing
// is sent. Path arguments fill ":name" placeholders; query arguments, and
// path arguments with no placeholder, become query parameters; body
// arguments become fields of a map body.
//
// Call options add to the request:
//
//   - Params: extra query parameters. Declared arguments win on collision.
//   - Body: the call-time body. With declared body fields, a map-like body is
//     merged (declared fields win) and a scalar one is nested under "body".
//     Without declared body fields it is sent as given.
//   - WithHeaders: the request headers.
//   - State, StateSupplier: the per-call state passed to every step.
//   - WithPassthrough: transport-specific options, forwarded untouched.
//
// # Pipeline
//
// Requests pass through the url, headers and body steps before dispatch.
// A successful *Response reply then passes through response_headers,
// response_body and status_code; every outcome ends at the response step.
// Each step is resolved when the endpoint is compiled: an explicit
// WithOverride (Inline, Named or On) beats the endpoint's WithProtocol,
// which beats the client's protocol, DefaultProtocol unless changed.
//
// Non-fatal anomalies, such as a placeholder with no matching argument, are
// reported as Diagnostic values to the client's DiagnosticSink.
package restep
