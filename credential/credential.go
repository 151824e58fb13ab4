package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound is returned when a source has no value.
var ErrNotFound = errors.New("credential: value not found")

// Source yields a secret string, typically a Deta project key.
type Source interface {
	Resolve(ctx context.Context) (string, error)
	// String names the source for logs. It never contains the secret.
	String() string
}

type staticSource string

// Static returns a Source that always yields key.
func Static(key string) Source {
	return staticSource(key)
}

func (s staticSource) Resolve(context.Context) (string, error) {
	if s == "" {
		return "", ErrNotFound
	}
	return string(s), nil
}

func (s staticSource) String() string { return "static" }

type envSource string

// Env returns a Source reading the environment variable name.
func Env(name string) Source {
	return envSource(name)
}

func (s envSource) Resolve(context.Context) (string, error) {
	if v := strings.TrimSpace(os.Getenv(string(s))); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: env %s", ErrNotFound, string(s))
}

func (s envSource) String() string { return "env:" + string(s) }

type chain []Source

// Chain tries each source in order and returns the first value found.
// Errors other than ErrNotFound stop the chain.
func Chain(sources ...Source) Source {
	return chain(sources)
}

func (c chain) Resolve(ctx context.Context) (string, error) {
	for _, s := range c {
		v, err := s.Resolve(ctx)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("credential: %s: %w", s, err)
		}
	}
	return "", ErrNotFound
}

func (c chain) String() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.String()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Resolve looks a value up by kind, as used in ${kind.key} placeholders:
// "env" reads the environment, "ssm" a Parameter Store path and "secret" a
// Secrets Manager id ("id#field" selects one field of a JSON secret).
// AWS lookups use the region from AWS_REGION.
func Resolve(ctx context.Context, kind, key string) (string, error) {
	switch kind {
	case "env":
		return Env(key).Resolve(ctx)
	case "ssm":
		return SSM(ctx, os.Getenv("AWS_REGION"), key).Resolve(ctx)
	case "secret":
		id, field, _ := strings.Cut(key, "#")
		return Secret(ctx, os.Getenv("AWS_REGION"), id, field).Resolve(ctx)
	default:
		return "", fmt.Errorf("credential: unknown source %q", kind)
	}
}
