package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockSSM struct {
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func (m *MockSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return m.GetParameterFunc(ctx, params, optFns...)
}

type MockSecrets struct {
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (m *MockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return m.GetSecretValueFunc(ctx, params, optFns...)
}

func secretReturning(value string) *MockSecrets {
	return &MockSecrets{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(value)}, nil
		},
	}
}

// --- Testes ---

func TestStaticAndEnv(t *testing.T) {
	ctx := context.Background()

	v, err := Static("abc_123").Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc_123", v)

	_, err = Static("").Resolve(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	t.Setenv("TEST_DETA_KEY", " abc_env ")
	v, err = Env("TEST_DETA_KEY").Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc_env", v)

	_, err = Env("TEST_DETA_KEY_UNSET").Resolve(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "env:TEST_DETA_KEY", Env("TEST_DETA_KEY").String())
}

func TestSSMSource(t *testing.T) {
	t.Run("Sucesso", func(t *testing.T) {
		mockClient := &MockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				assert.Equal(t, "/deta/project-key", *params.Name)
				assert.True(t, *params.WithDecryption)
				return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String("abc_ssm")}}, nil
			},
		}

		v, err := NewSSMSource(mockClient, "/deta/project-key").Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc_ssm", v)
	})

	t.Run("Erro na AWS", func(t *testing.T) {
		mockClient := &MockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, errors.New("AWS down")
			},
		}

		_, err := NewSSMSource(mockClient, "/deta/project-key").Resolve(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "AWS down")
	})

	t.Run("Parametro vazio", func(t *testing.T) {
		mockClient := &MockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{}, nil
			},
		}

		_, err := NewSSMSource(mockClient, "/x").Resolve(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSecretSource(t *testing.T) {
	ctx := context.Background()

	t.Run("Valor simples", func(t *testing.T) {
		v, err := NewSecretSource(secretReturning("abc_plain"), "deta", "").Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc_plain", v)
	})

	t.Run("Campo JSON", func(t *testing.T) {
		src := NewSecretSource(secretReturning(`{"project_key":"abc_json","port":5432}`), "deta", "project_key")
		v, err := src.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc_json", v)
		assert.Equal(t, "secret:deta#project_key", src.String())

		v, err = NewSecretSource(secretReturning(`{"port":5432}`), "deta", "port").Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "5432", v)
	})

	t.Run("Campo ausente", func(t *testing.T) {
		_, err := NewSecretSource(secretReturning(`{"other":"x"}`), "deta", "project_key").Resolve(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Segredo nao JSON com campo", func(t *testing.T) {
		_, err := NewSecretSource(secretReturning("plain"), "deta", "project_key").Resolve(ctx)
		assert.Error(t, err)
	})
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	v, err := Chain(Env("TEST_DETA_KEY_UNSET"), Static("abc_fallback")).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc_fallback", v)

	_, err = Chain(Env("TEST_DETA_KEY_UNSET"), Static("")).Resolve(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	failing := NewSSMSource(&MockSSM{
		GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
			return nil, errors.New("access denied")
		},
	}, "/deta/key")
	_, err = Chain(failing, Static("abc_never")).Resolve(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	assert.Equal(t, "chain(env:A,static)", Chain(Env("A"), Static("x")).String())
}

func TestResolve(t *testing.T) {
	t.Setenv("TEST_DETA_RESOLVE", "abc_resolved")

	v, err := Resolve(context.Background(), "env", "TEST_DETA_RESOLVE")
	require.NoError(t, err)
	assert.Equal(t, "abc_resolved", v)

	_, err = Resolve(context.Background(), "vault", "x")
	assert.Error(t, err)
}
