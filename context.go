package restep

import "context"

type contextKey struct {
	name string
}

var callInfoKey = &contextKey{"call_info"}

// CallInfo describes the endpoint a call is for. Interceptors and
// transports can read it from the context.
type CallInfo struct {
	Endpoint string
	Method   string
	Path     string
}

// CallInfoFromContext returns the CallInfo of the current call.
func CallInfoFromContext(ctx context.Context) (*CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey).(*CallInfo)
	return info, ok
}

func newCallContext(ctx context.Context, info *CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey, info)
}
