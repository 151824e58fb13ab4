package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raywall/deta-toolkit/pkg/config"
	"github.com/raywall/deta-toolkit/pkg/logger"
	"github.com/raywall/deta-toolkit/pkg/observability"
	"github.com/raywall/deta-toolkit/tools/emulator"
	"github.com/raywall/deta-toolkit/tools/emulator/storage"
	"github.com/spf13/pflag"
)

// Variáveis injetáveis para mocking
var (
	serverStarter = func(ctx context.Context, srv *emulator.Server, cfg config.EmulatorConf) error {
		return srv.ListenAndServe(ctx, cfg.Addr, cfg.ShutdownTimeout)
	}
	storageFactory = storage.New
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("emulator", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("CONFIG_FILE_PATH"), "arquivo YAML, s3://bucket/key ou dynamodb://tabela/chave")
	addr := flags.String("addr", "", "endereço de escuta (sobrescreve emulator.addr)")
	driver := flags.String("storage", "", "memory, redis, dynamodb ou postgres (sobrescreve emulator.storage.driver)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	// 1. Carrega Configuração (Loader)
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Emulator.Addr = *addr
	}
	if *driver != "" {
		cfg.Emulator.Storage.Driver = *driver
		if err := config.NewValidator().Validate(cfg); err != nil {
			return err
		}
	}

	// 2. Observabilidade
	log := logger.Component(logger.Configure(cfg.Logging), "emulator")
	provider, err := observability.SetupMetrics(cfg.Metrics)
	if err != nil {
		return err
	}
	defer observability.Close(provider) //nolint:errcheck

	// 3. Storage
	store, err := storageFactory(ctx, cfg.Emulator.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info().Str("storage", cfg.Emulator.Storage.Driver).Msg("storage ready")

	opts := []emulator.Option{emulator.WithLogger(log), emulator.WithMetrics(provider)}
	if cfg.Emulator.ProjectKey != "" {
		opts = append(opts, emulator.WithProjectKey(cfg.Emulator.ProjectKey))
	}
	srv, err := emulator.NewServer(store, opts...)
	if err != nil {
		return err
	}
	return serverStarter(ctx, srv, cfg.Emulator)
}
