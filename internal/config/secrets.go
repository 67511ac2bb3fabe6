package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir - стандартный путь Docker Secrets. Переменная для тестов.
var SecretsDir = "/run/secrets"

// ErrSecretNotFound - секрет не задан ни через <NAME>_FILE, ни файлом в SecretsDir.
var ErrSecretNotFound = errors.New("secret not found")

// ReadSecret читает секрет secretName (например, "openai_api_key").
// Путь из переменной OPENAI_API_KEY_FILE имеет приоритет над
// SecretsDir/openai_api_key. Пустой файл считается ошибкой, а не
// отсутствующим секретом.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	explicit := false
	if p := strings.TrimSpace(os.Getenv(strings.ToUpper(secretName) + "_FILE")); p != "" {
		filePath, explicit = p, true
	}

	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		// Явно указанный, но отсутствующий файл - ошибка конфигурации
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, secretName)
		}
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
