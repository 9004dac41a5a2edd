// Package bootstrap holds the small pieces of process-startup glue shared
// by every cmd/*/main.go: Vault secret loading with an environment-variable
// fallback for local development, and the getEnv/getEnvInt helpers each
// teacher main.go inlines. Centralized here so the seven pipeline-stage
// binaries don't each reimplement it.
package bootstrap

import (
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/tollhub/pipeline/internal/platform/config"
)

// LoadSecrets connects to Vault and reads the KV2 secret path for service,
// matching the reference monorepo's cmd/*/main.go Vault-bootstrap block.
// Vault is best-effort here: local development runs without a Vault server,
// so a connection/read failure logs a warning and returns a nil map, which
// SecretOr treats as "use the environment variable fallback".
func LoadSecrets(logger *zap.Logger, service string) map[string]interface{} {
	vaultAddr := GetEnv("VAULT_ADDR", "http://localhost:8200")
	vaultToken := GetEnv("VAULT_TOKEN", "root")
	secretPath := GetEnv("VAULT_SECRET_PATH", "secret/data/tollhub/"+service)

	manager, err := config.NewSecretManager(vaultAddr, vaultToken)
	if err != nil {
		logger.Warn("Vault client init failed, falling back to environment variables", zap.Error(err))
		return nil
	}

	secrets, err := manager.GetKV2(secretPath)
	if err != nil {
		logger.Warn("Vault secret read failed, falling back to environment variables", zap.Error(err))
		return nil
	}
	return secrets
}

// SecretOr returns secrets[key] if present and non-empty, else fallback.
func SecretOr(secrets map[string]interface{}, key, fallback string) string {
	if secrets == nil {
		return fallback
	}
	if v, ok := secrets[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// GetEnv reads a string environment variable, falling back when unset/empty.
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// GetEnvInt reads an integer environment variable, falling back on absence
// or parse failure.
func GetEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
