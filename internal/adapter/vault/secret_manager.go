package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager reads deploy secrets from Vault when the config enables
// it; otherwise everything comes from env/config files.
type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

// GetUpstreamAPIKey returns the marketplace API key issued to this
// frontend.
func (sm *SecretManager) GetUpstreamAPIKey() (string, error) {
	return sm.readField("secret/data/upstream", "api_key")
}

// GetRedisURL returns the redis connection string for session storage.
func (sm *SecretManager) GetRedisURL() (string, error) {
	return sm.readField("secret/data/redis", "url")
}

func (sm *SecretManager) readField(path, field string) (string, error) {
	secret, err := sm.client.Logical().Read(path)
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("secret %s has unexpected shape", path)
	}
	value, ok := data[field].(string)
	if !ok {
		return "", fmt.Errorf("secret %s missing field %s", path, field)
	}
	return value, nil
}
