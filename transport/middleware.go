package transport

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/raywall/deta-toolkit/pkg/metrics"
	"github.com/rs/zerolog"
)

// HeaderRequestID is set by WithRequestID.
const HeaderRequestID = "X-Request-Id"

// WithLogging logs every exchange at debug level and transport failures at warn.
// Headers and bodies are never logged: they carry the project key and user data.
func WithLogging(logger zerolog.Logger) Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Send(ctx, req)
			elapsed := time.Since(start)

			if err != nil {
				logger.Warn().
					Err(err).
					Str("method", req.Method).
					Str("url", redact(req.URL)).
					Dur("latency", elapsed).
					Msg("deta request failed")
				return nil, err
			}

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			logger.Debug().
				Str("method", req.Method).
				Str("url", redact(req.URL)).
				Int("status", status).
				Str("request_id", req.Headers[HeaderRequestID]).
				Dur("latency", elapsed).
				Msg("deta request")
			return resp, err
		})
	}
}

// WithMetrics counts exchanges and records their latency, tagged by method
// and status class. Provider errors are ignored.
func WithMetrics(p metrics.Provider, tags ...string) Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Send(ctx, req)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			t := append([]string{
				"method:" + req.Method,
				"status:" + metrics.StatusClass(status),
			}, tags...)

			_ = p.Count(metrics.RequestCount, 1, t)
			_ = p.Histogram(metrics.RequestLatency, float64(time.Since(start).Milliseconds()), t)
			return resp, err
		})
	}
}

// WithRequestID stamps a random id on requests that do not carry one.
func WithRequestID() Middleware {
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if _, ok := req.Headers[HeaderRequestID]; ok {
				return next.Send(ctx, req)
			}
			r := req.clone()
			r.Headers[HeaderRequestID] = uuid.NewString()
			return next.Send(ctx, r)
		})
	}
}
