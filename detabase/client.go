// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package detabase

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/raywall/deta-toolkit/envloader"
	"github.com/raywall/deta-toolkit/transport"
)

// DefaultEndpoint is the public Deta Base API root.
const DefaultEndpoint = "https://database.deta.sh/v1/"

const (
	headerAPIKey      = "X-API-Key"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	projectKeyEnv     = "DETA_PROJECT_KEY"
)

// EnvConfig is the client configuration read from the environment by NewFromEnv.
type EnvConfig struct {
	ProjectKey string `env:"DETA_PROJECT_KEY" envRequired:"true"`
	Endpoint   string `env:"DETA_BASE_ENDPOINT" envDefault:"https://database.deta.sh/v1/"`
	BaseName   string `env:"DETA_BASE_NAME"`
	HTTP       transport.HTTPConfig
}

// Client is a handle to a Deta project, optionally bound to one Base.
//
// A Client never changes after construction and is safe for concurrent
// use. Base returns a new handle that shares the same sender, so one
// Client can be reused and bound to several Bases:
//
//	deta, _ := detabase.New(key)
//	users := deta.Base("users")
//	orders := deta.Base("orders")
type Client struct {
	sender   transport.Sender
	baseURL  string
	headers  map[string]string
	baseName string
}

type options struct {
	sender      transport.Sender
	endpoint    string
	httpConfig  transport.HTTPConfig
	baseName    string
	middlewares []transport.Middleware
}

// Option customizes New.
type Option func(*options)

// WithSender replaces the default HTTP sender. Used by tests and by callers
// that bring their own connection pooling, retries or TLS settings.
func WithSender(s transport.Sender) Option {
	return func(o *options) {
		o.sender = s
	}
}

// WithEndpoint points the client to another API root, e.g. a local emulator.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithHTTPConfig configures the default HTTP sender.
func WithHTTPConfig(cfg transport.HTTPConfig) Option {
	return func(o *options) {
		o.httpConfig = cfg
	}
}

// WithBase binds the new client to a Base right away.
func WithBase(name string) Option {
	return func(o *options) {
		o.baseName = name
	}
}

// WithMiddleware decorates the sender (default or custom) with m, in order.
func WithMiddleware(m ...transport.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, m...)
	}
}

// New creates a client for the project owning projectKey.
//
// Errors: ErrCredentialMissing, ErrCredentialInvalid, ErrTransportInit.
func New(projectKey string, opts ...Option) (*Client, error) {
	projectID, err := ProjectID(projectKey)
	if err != nil {
		return nil, err
	}

	o := options{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(&o)
	}

	sender := o.sender
	if sender == nil {
		s, err := transport.NewHTTPSender(o.httpConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransportInit, err)
		}
		sender = s
	}
	sender = transport.Chain(sender, o.middlewares...)

	endpoint := o.endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint: %v", ErrTransportInit, err)
	}

	return &Client{
		sender:  sender,
		baseURL: strings.TrimRight(endpoint, "/") + "/" + projectID,
		headers: map[string]string{
			headerAPIKey:      projectKey,
			headerContentType: contentTypeJSON,
		},
		baseName: o.baseName,
	}, nil
}

// NewFromEnv creates a client from DETA_PROJECT_KEY and the other EnvConfig
// variables. Options passed here win over the environment.
func NewFromEnv(opts ...Option) (*Client, error) {
	var cfg EnvConfig
	if err := envloader.Load(&cfg); err != nil {
		var missing *envloader.MissingVariableError
		if errors.As(err, &missing) && missing.EnvVar == projectKeyEnv {
			return nil, ErrCredentialMissing
		}
		return nil, fmt.Errorf("%w: %v", ErrTransportInit, err)
	}

	base := []Option{WithEndpoint(cfg.Endpoint), WithHTTPConfig(cfg.HTTP)}
	if cfg.BaseName != "" {
		base = append(base, WithBase(cfg.BaseName))
	}
	return New(cfg.ProjectKey, append(base, opts...)...)
}

// Base returns a copy of the client bound to the Base called name.
// The receiver is left untouched.
func (c *Client) Base(name string) *Client {
	bound := *c
	bound.baseName = name
	return &bound
}

// BaseName returns the bound Base name, or "" when unbound.
func (c *Client) BaseName() string {
	return c.baseName
}

// ValidateProjectKey accepts keys made only of ASCII letters, digits and "_.-~".
func ValidateProjectKey(key string) error {
	if key == "" {
		return ErrCredentialMissing
	}
	for i := 0; i < len(key); i++ {
		ch := key[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '_', ch == '.', ch == '-', ch == '~':
		default:
			return ErrCredentialInvalid
		}
	}
	return nil
}

// ProjectID validates key and returns the routing id: everything before the first "_".
func ProjectID(key string) (string, error) {
	if err := ValidateProjectKey(key); err != nil {
		return "", err
	}
	id, _, _ := strings.Cut(key, "_")
	if id == "" {
		return "", ErrCredentialInvalid
	}
	return id, nil
}

func (c *Client) itemsURL() (string, error) {
	if c.baseName == "" {
		return "", ErrCollectionNotBound
	}
	return c.baseURL + "/" + url.PathEscape(c.baseName) + "/items", nil
}

func (c *Client) itemURL(key string) (string, error) {
	items, err := c.itemsURL()
	if err != nil {
		return "", err
	}
	return items + "/" + url.PathEscape(key), nil
}

// requestHeaders hands each request its own copy of the default headers.
func (c *Client) requestHeaders() map[string]string {
	return maps.Clone(c.headers)
}
