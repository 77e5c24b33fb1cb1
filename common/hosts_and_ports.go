package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultServerPort = 8080

// GetServerPort returns CHATRELAY_SERVER_PORT, or fallback when unset.
func GetServerPort(fallback int) (int, error) {
	port := strings.TrimSpace(os.Getenv("CHATRELAY_SERVER_PORT"))
	if port == "" {
		return fallback, nil
	}

	intPort, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("failed to parse CHATRELAY_SERVER_PORT %q: %w", port, err)
	}
	return intPort, nil
}

const defaultServerHost = "127.0.0.1"

func GetServerHost(fallback string) string {
	host := strings.TrimSpace(os.Getenv("CHATRELAY_SERVER_HOST"))
	if host == "" {
		return fallback
	}
	return host
}

// GetAllowedOriginsEnv returns the raw comma-separated CORS allowlist from
// the environment, or "" when unset.
func GetAllowedOriginsEnv() string {
	return strings.TrimSpace(os.Getenv("CHATRELAY_ALLOWED_ORIGINS"))
}
