package restep

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestChainInterceptors_Order(t *testing.T) {
	var order []string
	mk := func(name string) Interceptor {
		return func(ctx context.Context, req Request, next DispatchFunc) (any, error) {
			order = append(order, name+":before")
			reply, err := next(ctx, req)
			order = append(order, name+":after")
			return reply, err
		}
	}

	chain := chainInterceptors([]Interceptor{mk("1"), mk("2"), mk("3")})
	_, err := chain(context.Background(), Request{}, func(context.Context, Request) (any, error) {
		order = append(order, "dispatch")
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"1:before", "2:before", "3:before", "dispatch", "3:after", "2:after", "1:after"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestChainInterceptors_Empty(t *testing.T) {
	if chainInterceptors(nil) != nil {
		t.Error("expected nil chain for no interceptors")
	}
}

func TestInterceptor_SeesBuiltRequestAndRawReply(t *testing.T) {
	tr := newRecordingTransport()
	tr.reply = &Response{Status: 201, Headers: Headers{}}

	var seenReq Request
	var seenStatus int
	var diags []Diagnostic
	c := quietClient(tr, &diags).
		WithProtocol(JSONProtocol{}).
		WithInterceptor(func(ctx context.Context, req Request, next DispatchFunc) (any, error) {
			seenReq = req
			reply, err := next(ctx, req)
			if resp, ok := reply.(*Response); ok {
				seenStatus = resp.Status
			}
			return reply, err
		})

	e := must(c.Post("ep", WithPath("/items"), WithArgs(BodyArg("n"))))
	if _, err := e.Invoke(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	if seenReq.URL != "http:///items" || seenReq.Headers.Get("Content-Type") != "application/json" {
		t.Errorf("expected fully built request, got %+v", seenReq)
	}
	if seenStatus != 201 {
		t.Errorf("expected raw reply status 201, got %d", seenStatus)
	}
}

func TestInterceptor_ShortCircuit(t *testing.T) {
	tr := newRecordingTransport()
	denied := errors.New("denied")
	var diags []Diagnostic
	c := quietClient(tr, &diags).WithInterceptor(func(ctx context.Context, req Request, next DispatchFunc) (any, error) {
		return nil, denied
	})

	e := must(c.Get("ep"))
	_, err := e.Invoke(context.Background())
	if !errors.Is(err, denied) {
		t.Errorf("expected interceptor error, got %v", err)
	}
	if tr.calls() != 0 {
		t.Errorf("expected transport not to be called, got %d", tr.calls())
	}
}

func TestInterceptor_PassthroughReachesTransport(t *testing.T) {
	tr := newRecordingTransport()
	var diags []Diagnostic
	c := quietClient(tr, &diags).WithInterceptor(func(ctx context.Context, req Request, next DispatchFunc) (any, error) {
		return next(ctx, req)
	})
	e := must(c.Get("ep"))
	if _, err := e.Call(context.Background(), nil, WithPassthrough("k", "v")); err != nil {
		t.Fatal(err)
	}
	if tr.opts[0]["k"] != "v" {
		t.Errorf("expected passthrough through the chain, got %v", tr.opts[0])
	}
}
