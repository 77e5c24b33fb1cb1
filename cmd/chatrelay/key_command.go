package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"chatrelay/common"
	"chatrelay/secret_manager"

	"github.com/erikgeiser/promptkit/selection"
	"github.com/erikgeiser/promptkit/textinput"
	"github.com/urfave/cli/v3"
)

func NewKeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Manage provider API keys stored in the system keyring",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store an API key, e.g. chatrelay key set OPENAI_API_KEY",
				ArgsUsage: "[secret name]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stdin",
						Usage: "Read the key from standard input instead of prompting",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return handleKeySet(cmd, &secret_manager.KeyringSecretManager{})
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove a stored API key",
				ArgsUsage: "[secret name]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return handleKeyDelete(cmd, &secret_manager.KeyringSecretManager{})
				},
			},
		},
	}
}

// knownSecretNames lists the API key secret for each built-in provider type.
func knownSecretNames() []string {
	names := make([]string, 0, len(common.ValidProviderTypes))
	for _, providerType := range common.ValidProviderTypes {
		names = append(names, common.ProviderConfig{Type: providerType}.SecretName())
	}
	return names
}

func secretNameArg(cmd *cli.Command) (string, error) {
	if name := strings.TrimSpace(cmd.Args().First()); name != "" {
		return strings.ToUpper(name), nil
	}
	nameSelection := selection.New("Which API key?", knownSecretNames())
	name, err := nameSelection.RunPrompt()
	if err != nil {
		return "", fmt.Errorf("secret selection failed: %w", err)
	}
	return name, nil
}

func readSecretValue(cmd *cli.Command, name string) (string, error) {
	if cmd.Bool("stdin") {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read %s from stdin: %w", name, err)
		}
		return strings.TrimSpace(line), nil
	}

	input := textinput.New(fmt.Sprintf("Enter %s: ", name))
	input.Hidden = true
	value, err := input.RunPrompt()
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func handleKeySet(cmd *cli.Command, secrets secret_manager.SecretManager) error {
	name, err := secretNameArg(cmd)
	if err != nil {
		return err
	}
	value, err := readSecretValue(cmd, name)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	if err := secrets.SetSecret(name, value); err != nil {
		return err
	}
	fmt.Printf("Stored %s in the %s secret manager\n", name, secrets.GetType())
	return nil
}

func handleKeyDelete(cmd *cli.Command, secrets secret_manager.SecretManager) error {
	name, err := secretNameArg(cmd)
	if err != nil {
		return err
	}
	if err := secrets.DeleteSecret(name); err != nil {
		return err
	}
	fmt.Printf("Deleted %s from the %s secret manager\n", name, secrets.GetType())
	return nil
}
