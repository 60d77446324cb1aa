package internal

import (
	"fmt"
	"os"
	"strings"
)

// EnvVar is the environment variable that selects the deployment environment.
const EnvVar = "RAPID_ENV"

// Env is a deployment environment tag.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvTest        Env = "test"
	EnvProduction  Env = "production"
)

// ParseEnv validates an environment tag. An empty value means development.
func ParseEnv(s string) (Env, error) {
	switch env := Env(strings.ToLower(strings.TrimSpace(s))); env {
	case "":
		return EnvDevelopment, nil
	case EnvDevelopment, EnvTest, EnvProduction:
		return env, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEnv, s)
}

// EnvFromOS reads the environment tag from RAPID_ENV.
func EnvFromOS() (Env, error) {
	return ParseEnv(os.Getenv(EnvVar))
}

func (e Env) String() string { return string(e) }

// IsProduction reports whether e is the production environment.
func (e Env) IsProduction() bool { return e == EnvProduction }

// IsTest reports whether e is the test environment.
func (e Env) IsTest() bool { return e == EnvTest }
