// Command detactl lê e grava itens de uma Deta Base pela linha de comando.
//
//	detactl put --base users --key ana --value '{"name":"Ana","age":32}'
//	detactl get --base users --key ana
//	detactl update --base users --key ana --increment age=1 --append likes='"ramen"'
//
// A project key e o endpoint vêm do arquivo --config ou de DETA_PROJECT_KEY
// e DETA_BASE_ENDPOINT. A saída é sempre JSON em stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raywall/deta-toolkit/detabase"
	"github.com/raywall/deta-toolkit/pkg/config"
	"github.com/raywall/deta-toolkit/pkg/logger"
	"github.com/raywall/deta-toolkit/pkg/metrics"
	"github.com/raywall/deta-toolkit/pkg/observability"
	"github.com/raywall/deta-toolkit/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const usage = `uso: detactl <comando> [flags]

Comandos:
  get        valor de --key
  get-item   item de --key, com a chave
  put        grava --value (com --key opcional)
  put-many   grava os itens do arquivo --file (array JSON, até 25)
  insert     cria --value, falha se --key já existir
  update     aplica --set/--increment/--append/--prepend/--delete em --key
  delete     remove --key
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "erro: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	base       string
	key        string
	value      string
	file       string
	set        []string
	increment  []string
	appendOps  []string
	prependOps []string
	deletes    []string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return errors.New("comando ausente")
		}
		return nil
	}
	cmd := args[0]

	var o options
	flags := pflag.NewFlagSet("detactl "+cmd, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.configPath, "config", os.Getenv("CONFIG_FILE_PATH"), "arquivo YAML, s3://bucket/key ou dynamodb://tabela/chave")
	flags.StringVar(&o.base, "base", "", "nome da base (sobrescreve client.base)")
	flags.StringVar(&o.key, "key", "", "chave do item")
	flags.StringVar(&o.value, "value", "", "valor em JSON")
	flags.StringVar(&o.file, "file", "", "arquivo com um array JSON de itens (put-many)")
	flags.StringArrayVar(&o.set, "set", nil, "caminho=json (repetível)")
	flags.StringArrayVar(&o.increment, "increment", nil, "caminho=número (repetível)")
	flags.StringArrayVar(&o.appendOps, "append", nil, "caminho=json (repetível)")
	flags.StringArrayVar(&o.prependOps, "prepend", nil, "caminho=json (repetível)")
	flags.StringArrayVar(&o.deletes, "delete", nil, "caminho (repetível)")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(ctx, o.configPath)
	if err != nil {
		return err
	}
	if o.base != "" {
		cfg.Client.Base = o.base
	}

	// logs em stderr para não misturar com a saída JSON
	log := logger.Component(logger.ConfigureWriter(cfg.Logging, stderr), "detactl")
	provider, err := observability.SetupMetrics(cfg.Metrics)
	if err != nil {
		return err
	}
	defer observability.Close(provider) //nolint:errcheck

	client, err := newClient(cfg.Client, log, provider)
	if err != nil {
		return err
	}

	result, err := execute(ctx, client, cmd, o)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func newClient(cfg config.ClientConf, log zerolog.Logger, provider metrics.Provider) (*detabase.Client, error) {
	opts := []detabase.Option{
		detabase.WithHTTPConfig(cfg.HTTP),
		detabase.WithMiddleware(
			transport.WithRequestID(),
			transport.WithLogging(log),
			transport.WithMetrics(provider, "base:"+cfg.Base),
		),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, detabase.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Base != "" {
		opts = append(opts, detabase.WithBase(cfg.Base))
	}
	return detabase.New(cfg.ProjectKey, opts...)
}

func execute(ctx context.Context, c *detabase.Client, cmd string, o options) (any, error) {
	needKey := func() error {
		if o.key == "" {
			return fmt.Errorf("%s: --key é obrigatória", cmd)
		}
		return nil
	}

	switch cmd {
	case "get":
		if err := needKey(); err != nil {
			return nil, err
		}
		return detabase.Get[json.RawMessage](ctx, c, o.key)

	case "get-item":
		if err := needKey(); err != nil {
			return nil, err
		}
		return detabase.GetItem[json.RawMessage](ctx, c, o.key)

	case "put", "insert":
		value, err := parseValue(o.value)
		if err != nil {
			return nil, err
		}
		item := detabase.NewItemWithKey(o.key, value)
		var key string
		if cmd == "put" {
			key, err = detabase.Put(ctx, c, item)
		} else {
			key, err = detabase.Insert(ctx, c, item)
		}
		if err != nil {
			return nil, err
		}
		return map[string]string{"key": key}, nil

	case "put-many":
		items, err := readItems(o.file)
		if err != nil {
			return nil, err
		}
		res, err := detabase.PutMany[json.RawMessage, json.RawMessage](ctx, c, items)
		if err != nil {
			return nil, err
		}
		return map[string]any{"processed": res.Processed, "failed": res.Failed}, nil

	case "update":
		if err := needKey(); err != nil {
			return nil, err
		}
		u, err := buildUpdate(o)
		if err != nil {
			return nil, err
		}
		if err := c.Update(ctx, o.key, u); err != nil {
			return nil, err
		}
		return map[string]string{"key": o.key}, nil

	case "delete":
		if err := needKey(); err != nil {
			return nil, err
		}
		if err := c.Delete(ctx, o.key); err != nil {
			return nil, err
		}
		return map[string]string{"key": o.key}, nil

	default:
		return nil, fmt.Errorf("comando desconhecido: %s", cmd)
	}
}

func parseValue(s string) (json.RawMessage, error) {
	if s == "" {
		return nil, errors.New("--value é obrigatório")
	}
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("--value não é JSON válido: %s", s)
	}
	return json.RawMessage(s), nil
}

func readItems(path string) ([]detabase.Item[json.RawMessage], error) {
	if path == "" {
		return nil, errors.New("--file é obrigatório")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []detabase.Item[json.RawMessage]
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: esperado um array de objetos JSON: %w", path, err)
	}
	return items, nil
}

// buildUpdate monta o Update a partir das flags. Valores que não são JSON
// válido são enviados como string.
func buildUpdate(o options) (*detabase.Update, error) {
	u := detabase.NewUpdate()

	for _, kv := range o.set {
		p, v, err := splitOp("set", kv)
		if err != nil {
			return nil, err
		}
		u.Set(p, jsonOrString(v))
	}
	for _, kv := range o.increment {
		p, v, err := splitOp("increment", kv)
		if err != nil {
			return nil, err
		}
		n, ok := jsonOrString(v).(json.Number)
		if !ok {
			return nil, fmt.Errorf("--increment %s: %q não é número", p, v)
		}
		u.Increment(p, n)
	}
	for _, kv := range o.appendOps {
		p, v, err := splitOp("append", kv)
		if err != nil {
			return nil, err
		}
		u.Append(p, jsonOrString(v))
	}
	for _, kv := range o.prependOps {
		p, v, err := splitOp("prepend", kv)
		if err != nil {
			return nil, err
		}
		u.Prepend(p, jsonOrString(v))
	}
	for _, p := range o.deletes {
		u.Delete(p)
	}

	if u.IsEmpty() {
		return nil, errors.New("update: nenhuma operação informada")
	}
	return u, nil
}

func splitOp(flag, kv string) (string, string, error) {
	p, v, ok := strings.Cut(kv, "=")
	if !ok || p == "" {
		return "", "", fmt.Errorf("--%s espera caminho=valor, recebido %q", flag, kv)
	}
	return p, v, nil
}

// jsonOrString mantém números como json.Number, sem passar por float64.
func jsonOrString(v string) any {
	dec := json.NewDecoder(strings.NewReader(v))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil || dec.More() {
		return v
	}
	return out
}
