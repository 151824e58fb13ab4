package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/deta-toolkit/detabase"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ToolkitConfig) error {
	if cfg == nil {
		return errors.New("configuração nula")
	}

	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *ToolkitConfig) error {
	// 1. Project keys, quando presentes, seguem o formato do Deta
	if k := cfg.Client.ProjectKey; k != "" {
		if err := detabase.ValidateProjectKey(k); err != nil {
			return fmt.Errorf("client.project_key: %w", err)
		}
	}
	if k := cfg.Emulator.ProjectKey; k != "" {
		if _, err := detabase.ProjectID(k); err != nil {
			return fmt.Errorf("emulator.project_key: %w", err)
		}
	}

	// 2. Endpoint precisa de esquema http(s)
	if e := cfg.Client.Endpoint; e != "" {
		u, err := url.Parse(e)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("client.endpoint deve ser http(s): '%s'", e)
		}
	}

	// 3. Cada driver exige sua própria seção
	st := cfg.Emulator.Storage
	switch st.Driver {
	case DriverRedis:
		if st.Redis.Addr == "" {
			return errors.New("storage redis exige 'redis.addr'")
		}
	case DriverDynamoDB:
		if st.DynamoDB.Table == "" {
			return errors.New("storage dynamodb exige 'dynamodb.table'")
		}
	case DriverPostgres:
		if st.Postgres.DSN == "" {
			return errors.New("storage postgres exige 'postgres.dsn'")
		}
		// o nome da tabela é interpolado no SQL
		if !tableName.MatchString(st.Postgres.Table) {
			return fmt.Errorf("nome de tabela postgres inválido: '%s'", st.Postgres.Table)
		}
	}

	return nil
}
