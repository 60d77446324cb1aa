package jwt

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SecretFromFile reads the secret stored at path. When the file does not
// exist a random secret is generated and written there first.
func SecretFromFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		secret := strings.TrimSpace(string(b))
		if secret == "" {
			return "", errors.Join(ErrSecretFile, ErrEmptySecret)
		}
		return secret, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", errors.Join(ErrSecretFile, err)
	}

	secret := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Join(ErrSecretFile, err)
	}
	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return "", errors.Join(ErrSecretFile, err)
	}
	return secret, nil
}
