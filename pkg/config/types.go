package config

import (
	"time"

	"github.com/raywall/deta-toolkit/transport"
)

// Storage drivers aceitos pelo emulador.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
)

// ToolkitConfig representa a estrutura raiz do arquivo YAML do toolkit.
// Strings aceitam placeholders ${env.X}, ${ssm./path} e ${secret.id}.
type ToolkitConfig struct {
	Version  string       `yaml:"version" validate:"required"`
	Client   ClientConf   `yaml:"client"`
	Logging  LoggingConf  `yaml:"logging"`
	Metrics  MetricsConf  `yaml:"metrics"`
	Emulator EmulatorConf `yaml:"emulator"`
}

// ClientConf configura o detabase.Client usado pelo CLI e pelos exemplos.
type ClientConf struct {
	ProjectKey string               `yaml:"project_key" env:"DETA_PROJECT_KEY"`
	Endpoint   string               `yaml:"endpoint" env:"DETA_BASE_ENDPOINT" validate:"omitempty,url"`
	Base       string               `yaml:"base" env:"DETA_BASE_NAME"`
	HTTP       transport.HTTPConfig `yaml:"http"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool     `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string   `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

// EmulatorConf configura o servidor local que imita a API do Deta Base.
type EmulatorConf struct {
	Addr string `yaml:"addr" env:"EMULATOR_ADDR" validate:"required"`
	// ProjectKey, quando definida, é exigida no header X-API-Key.
	ProjectKey      string        `yaml:"project_key" env:"EMULATOR_PROJECT_KEY"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"EMULATOR_SHUTDOWN_TIMEOUT" validate:"gte=0"`
	Storage         StorageConf   `yaml:"storage"`
}

type StorageConf struct {
	Driver   string       `yaml:"driver" env:"EMULATOR_STORAGE" validate:"oneof=memory redis dynamodb postgres"`
	Redis    RedisConf    `yaml:"redis"`
	DynamoDB DynamoDBConf `yaml:"dynamodb"`
	Postgres PostgresConf `yaml:"postgres"`
}

type RedisConf struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" validate:"gte=0"`
	Prefix   string `yaml:"prefix"`
}

type DynamoDBConf struct {
	Table    string `yaml:"table" env:"DYNAMODB_TABLE_NAME"`
	Region   string `yaml:"region" env:"AWS_REGION"`
	Endpoint string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT" validate:"omitempty,url"`
}

type PostgresConf struct {
	DSN   string `yaml:"dsn" env:"POSTGRES_DSN"`
	Table string `yaml:"table"`
}

// Default retorna uma configuração válida para uso local: cliente apontando
// para o endpoint público, logs em JSON e emulador em memória.
func Default() *ToolkitConfig {
	return &ToolkitConfig{
		Version: "1",
		Logging: LoggingConf{Enabled: true, Level: "info", Format: "json"},
		Emulator: EmulatorConf{
			Addr:            ":4566",
			ShutdownTimeout: 10 * time.Second,
			Storage: StorageConf{
				Driver:   DriverMemory,
				Redis:    RedisConf{Prefix: "deta"},
				Postgres: PostgresConf{Table: "deta_items"},
			},
		},
	}
}
