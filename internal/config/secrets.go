package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultSecretsDir is where container secrets are mounted.
const DefaultSecretsDir = "/run/secrets"

// readSecret reads <dir>/<lower-case name>. Missing or empty files are not
// an error; they fall through to the environment.
func readSecret(dir, name string) (string, bool) {
	if dir == "" {
		return "", false
	}

	path := filepath.Join(dir, strings.ToLower(name))
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("secret", name).Msg("Failed to read secret file")
		}
		return "", false
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false
	}

	log.Debug().Str("secret", name).Msg("Using mounted secret")
	return value, true
}

// Lookup resolves a setting from the secret store, then the environment,
// then def.
func Lookup(name, def string) string {
	dir := os.Getenv("SECRETS_DIR")
	if dir == "" {
		dir = DefaultSecretsDir
	}
	return lookupIn(dir, name, def)
}

// lookupIn is Lookup against an explicit secrets directory. Load uses it with
// the configured SECRETS_DIR and the envconfig value as def.
func lookupIn(dir, name, def string) string {
	if v, ok := readSecret(dir, name); ok {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
