package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrResponseTooLarge is returned when a body exceeds HTTPConfig.MaxResponseBytes.
var ErrResponseTooLarge = errors.New("transport: response too large")

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "deta-toolkit/go"
)

// HTTPConfig configura o HTTPSender.
type HTTPConfig struct {
	// Timeout for the whole exchange. Zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout" env:"DETA_HTTP_TIMEOUT" validate:"gte=0"`
	// UserAgent sent on every request. Empty means DefaultUserAgent.
	UserAgent string `yaml:"user_agent" env:"DETA_HTTP_USER_AGENT"`
	// MaxResponseBytes caps the body size; larger bodies fail with
	// ErrResponseTooLarge. Zero means no cap.
	MaxResponseBytes int64 `yaml:"max_response_bytes" env:"DETA_HTTP_MAX_RESPONSE_BYTES" validate:"gte=0"`
}

// HTTPSender sends requests with net/http. Connection reuse, proxies and TLS
// come from the underlying *http.Client.
type HTTPSender struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// HTTPOption customizes an HTTPSender.
type HTTPOption func(*HTTPSender)

// WithHTTPClient replaces the default *http.Client. Its Timeout is kept as is.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSender) {
		s.client = c
	}
}

var validate = validator.New()

// NewHTTPSender validates cfg and builds a sender.
func NewHTTPSender(cfg HTTPConfig, opts ...HTTPOption) (*HTTPSender, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("transport: invalid http config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	s := &HTTPSender{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  cfg.MaxResponseBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		return nil, fmt.Errorf("transport: nil http client")
	}
	return s, nil
}

// Send executes the request. Any status is a successful exchange; only
// failures to talk to the server are returned as errors.
func (s *HTTPSender) Send(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(r.Method), r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, query string included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("transport: %s %s: %w", req.Method, redact(r.URL), err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if s.maxBytes > 0 {
		// one extra byte tells a body of exactly maxBytes from a longer one
		reader = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	respBody, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("transport: read response: %w", err)
	}
	if s.maxBytes > 0 && int64(len(respBody)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s %s: over %d bytes", ErrResponseTooLarge, req.Method, redact(r.URL), s.maxBytes)
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       respBody,
	}, nil
}

// redact drops the query string from a URL before it goes into an error or a log line.
func redact(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
