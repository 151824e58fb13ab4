package transport

import (
	"context"
	"maps"
)

// Request is a single HTTP exchange to send. Body is already-encoded JSON, or nil.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is what came back from the remote side.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Sender performs one request/response exchange. Implementations must be
// safe for concurrent use and must not retry.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f(ctx, req).
func (f SenderFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware decorates a Sender.
type Middleware func(Sender) Sender

// Chain wraps s with the middlewares. The first middleware is the outermost.
func Chain(s Sender, mws ...Middleware) Sender {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}

// clone copies the request so middlewares never mutate the caller's headers.
func (r *Request) clone() *Request {
	c := *r
	c.Headers = maps.Clone(r.Headers)
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	return &c
}
