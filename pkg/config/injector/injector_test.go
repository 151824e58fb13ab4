package injector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/raywall/deta-toolkit/credential"
	"github.com/raywall/deta-toolkit/pkg/config/injector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestConfig struct {
	APIKey      string         `yaml:"api_key"`     // Caso 1: Interpolação String "${env.KEY}"
	Description string         `yaml:"description"` // Caso 2: Texto misto "Base ${env.BASE} em ${env.REGION}"
	Meta        map[string]any // Caso 3: Map Dinâmico
	Nested      *NestedConfig
	Tags        []string
}

type NestedConfig struct {
	URL string
}

func TestInjector_Inject_Environment(t *testing.T) {
	t.Setenv("API_KEY", "abc_12345")
	t.Setenv("REGION", "us-east-1")
	t.Setenv("BASE", "users")
	t.Setenv("DB_HOST", "localhost")

	inj := injector.New()

	target := &TestConfig{
		APIKey:      "${env.API_KEY}",
		Description: "Base ${env.BASE} em ${env.REGION}",
		Meta: map[string]any{
			"db_host": "${env.DB_HOST}",
			"timeout": 5000, // Inteiro não deve ser tocado
			"inner":   map[string]any{"region": "${env.REGION}"},
		},
		Nested: &NestedConfig{URL: "https://${env.REGION}.api.com"},
		Tags:   []string{"region:${env.REGION}"},
	}

	require.NoError(t, inj.Inject(context.Background(), target))

	assert.Equal(t, "abc_12345", target.APIKey, "Interpolação direta falhou")
	assert.Equal(t, "Base users em us-east-1", target.Description, "Interpolação mista falhou")
	assert.Equal(t, "localhost", target.Meta["db_host"], "Interpolação em mapa falhou")
	assert.Equal(t, 5000, target.Meta["timeout"])
	assert.Equal(t, "us-east-1", target.Meta["inner"].(map[string]any)["region"])
	assert.Equal(t, "https://us-east-1.api.com", target.Nested.URL, "Interpolação aninhada falhou")
	assert.Equal(t, []string{"region:us-east-1"}, target.Tags)
}

func TestInjector_MissingEnvBecomesEmpty(t *testing.T) {
	target := &TestConfig{APIKey: "${env.DETA_TOOLKIT_SURELY_UNSET}"}
	require.NoError(t, injector.New().Inject(context.Background(), target))
	assert.Empty(t, target.APIKey)
}

func TestInjector_CustomResolver(t *testing.T) {
	var calls []string
	inj := injector.WithResolver(func(_ context.Context, kind, key string) (string, error) {
		calls = append(calls, kind+":"+key)
		return "resolved-" + kind, nil
	})

	target := &TestConfig{
		APIKey:      "${ssm./deta/project_key}",
		Description: "${secret.deta#key}",
	}
	require.NoError(t, inj.Inject(context.Background(), target))

	assert.Equal(t, "resolved-ssm", target.APIKey)
	assert.Equal(t, "resolved-secret", target.Description)
	assert.Equal(t, []string{"ssm:/deta/project_key", "secret:deta#key"}, calls)
}

func TestInjector_ResolverError(t *testing.T) {
	boom := errors.New("access denied")
	inj := injector.WithResolver(func(context.Context, string, string) (string, error) {
		return "", boom
	})

	target := &TestConfig{Nested: &NestedConfig{URL: "${ssm./x}"}}
	err := inj.Inject(context.Background(), target)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Nested")
	assert.Equal(t, "${ssm./x}", target.Nested.URL)
}

func TestInjector_MissingSecretIsError(t *testing.T) {
	inj := injector.WithResolver(func(context.Context, string, string) (string, error) {
		return "", credential.ErrNotFound
	})
	err := inj.Inject(context.Background(), &TestConfig{APIKey: "${secret.gone}"})
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestInjector_InvalidTarget(t *testing.T) {
	inj := injector.New()
	assert.Error(t, inj.Inject(context.Background(), TestConfig{}))
	assert.Error(t, inj.Inject(context.Background(), (*TestConfig)(nil)))
}
