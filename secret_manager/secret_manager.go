package secret_manager

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/zalando/go-keyring"
)

type SecretManager interface {
	GetSecret(secretName string) (string, error)
	SetSecret(secretName string, secret string) error
	DeleteSecret(secretName string) error
	GetType() SecretManagerType
}

type SecretManagerType string

const (
	EnvSecretManagerType     SecretManagerType = "env"
	MockSecretManagerType    SecretManagerType = "mock"
	KeyringSecretManagerType SecretManagerType = "keyring"
)

const keyringService = "chatrelay"

var ErrSecretNotFound = errors.New("secret not found")

// EnvSecretManager reads CHATRELAY_<NAME>, then the bare <NAME> so the usual
// vendor variables such as OPENAI_API_KEY work unprefixed.
type EnvSecretManager struct{}

func (e EnvSecretManager) SetSecret(secretName string, secret string) error {
	return fmt.Errorf("cannot set secrets in environment secret manager - secrets must be set as environment variables")
}

func (e EnvSecretManager) GetSecret(secretName string) (string, error) {
	prefixed := fmt.Sprintf("CHATRELAY_%s", secretName)
	if secret := os.Getenv(prefixed); secret != "" {
		return secret, nil
	}
	if secret := os.Getenv(secretName); secret != "" {
		return secret, nil
	}
	return "", fmt.Errorf("%w: neither %s nor %s is set in the environment", ErrSecretNotFound, prefixed, secretName)
}

func (e EnvSecretManager) DeleteSecret(secretName string) error {
	return fmt.Errorf("cannot delete secrets in environment secret manager - secrets must be managed via environment variables")
}

func (e EnvSecretManager) GetType() SecretManagerType {
	return EnvSecretManagerType
}

type KeyringSecretManager struct{}

func (k KeyringSecretManager) SetSecret(secretName string, secret string) error {
	err := keyring.Set(keyringService, secretName, secret)
	if err != nil {
		return fmt.Errorf("error setting %s in keyring: %w", secretName, err)
	}
	return nil
}

func (k KeyringSecretManager) GetSecret(secretName string) (string, error) {
	secret, err := keyring.Get(keyringService, secretName)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s is not in the keyring", ErrSecretNotFound, secretName)
	}
	if err != nil {
		return "", fmt.Errorf("error retrieving %s from keyring: %w", secretName, err)
	}
	return secret, nil
}

func (k KeyringSecretManager) DeleteSecret(secretName string) error {
	err := keyring.Delete(keyringService, secretName)
	if err != nil {
		return fmt.Errorf("error deleting %s from keyring: %w", secretName, err)
	}
	return nil
}

func (k KeyringSecretManager) GetType() SecretManagerType {
	return KeyringSecretManagerType
}

// MockSecretManager keeps secrets in memory. Unknown names resolve to
// "fake secret" so providers can be constructed in tests without keys.
type MockSecretManager struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func (m *MockSecretManager) GetSecret(secretName string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if secret, ok := m.secrets[secretName]; ok {
		return secret, nil
	}
	return "fake secret", nil
}

func (m *MockSecretManager) SetSecret(secretName string, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.secrets == nil {
		m.secrets = make(map[string]string)
	}
	m.secrets[secretName] = secret
	return nil
}

func (m *MockSecretManager) DeleteSecret(secretName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, secretName)
	return nil
}

func (m *MockSecretManager) GetType() SecretManagerType {
	return MockSecretManagerType
}

// GetSecretManager returns a SecretManager instance of the specified type
func GetSecretManager(smType SecretManagerType) (SecretManager, error) {
	switch smType {
	case KeyringSecretManagerType:
		return &KeyringSecretManager{}, nil
	case EnvSecretManagerType, "":
		return &EnvSecretManager{}, nil
	case MockSecretManagerType:
		return &MockSecretManager{}, nil
	default:
		return nil, fmt.Errorf("unknown secret manager type: %s", smType)
	}
}
