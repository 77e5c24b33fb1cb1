package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay/api"
	"chatrelay/common"
	"chatrelay/llm"
	"chatrelay/logger"
	"chatrelay/secret_manager"
	"chatrelay/telemetry"

	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 30 * time.Second

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the chat relay HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a yaml, toml or json config file",
				Sources: cli.EnvVars("CHATRELAY_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on, overriding the config file",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Provider type to relay to (openai, anthropic, google, openai_compatible)",
			},
		},
		Action: handleServeCommand,
	}
}

func loadServeConfig(cmd *cli.Command) (common.LocalConfig, error) {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = common.GetDefaultConfigPath()
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return common.LocalConfig{}, err
	}

	if cmd.IsSet("port") {
		config.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("provider") {
		config.Provider.Type = cmd.String("provider")
	}
	if err := config.Validate(); err != nil {
		return common.LocalConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func handleServeCommand(ctx context.Context, cmd *cli.Command) error {
	l := logger.Get()

	config, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	shutdownTracer, err := telemetry.InitTracer("chatrelay")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			l.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	secrets, err := secret_manager.GetSecretManager(secret_manager.SecretManagerType(config.SecretManager))
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(config.Provider, secrets)
	if err != nil {
		return err
	}

	srv, err := api.RunServer(config, provider)
	if err != nil {
		return err
	}
	l.Info().
		Str("addr", srv.Addr).
		Str("provider", provider.Name()).
		Msg("chat relay listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
