package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("Warning: failed to load .env file")
		}
	}

	cmd := NewRootCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("chatrelay failed")
	}
}

func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "chatrelay",
		Usage: "Relay chat messages to an LLM provider over HTTP",
		Commands: []*cli.Command{
			NewServeCommand(),
			NewKeyCommand(),
		},
	}
}
