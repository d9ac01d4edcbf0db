package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// VaultClient wraps the Vault API client for KVv2 secret reads
type VaultClient struct {
	client *api.Client
	config VaultConfig
}

// NewVaultClient creates a new Vault client from configuration. Returns
// nil when Vault integration is disabled.
func NewVaultClient(config VaultConfig) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", vaultConfig.Address, err)
	}

	return &VaultClient{
		client: client,
		config: config,
	}, nil
}

// resolveVaultToken resolves the Vault token from config or a token file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// GetStringSecret retrieves a string value from a Vault KVv2 secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	if vc == nil {
		return "", fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}

	return strValue, nil
}

// loadAPIKeyFromVault fetches the model API key from Vault and applies it
// to the AI configuration. Runs during config load, before the logger
// exists, so it logs via the standard logger.
func (c *Config) loadAPIKeyFromVault() error {
	if c.Vault.SecretPath == "" {
		return fmt.Errorf("vault is enabled but vault.secretPath is not set")
	}

	client, err := NewVaultClient(c.Vault)
	if err != nil {
		return err
	}

	apiKey, err := client.GetStringSecret(c.Vault.SecretPath, c.Vault.SecretKey)
	if err != nil {
		return fmt.Errorf("failed to load model API key from vault: %w", err)
	}
	if apiKey == "" {
		return fmt.Errorf("empty model API key at vault path %s", c.Vault.SecretPath)
	}

	c.AI.APIKey = apiKey
	if c.AI.Questions.APIKey == "" {
		c.AI.Questions.APIKey = apiKey
	}
	if c.AI.Evaluate.APIKey == "" {
		c.AI.Evaluate.APIKey = apiKey
	}
	if c.AI.Chat.APIKey == "" {
		c.AI.Chat.APIKey = apiKey
	}

	log.Println("[CONFIG] Model API key loaded from Vault")
	return nil
}
