package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// DefaultEnvFile is read when no --env-file is given. Its absence is not an error.
const DefaultEnvFile = ".env"

// Env is a read-only snapshot of environment variables. Expansion and
// credential selection read from it instead of the process environment.
type Env map[string]string

// Get returns the value of name, or "" when unset.
func (e Env) Get(name string) string {
	return e[name]
}

// EnvFromOS snapshots the current process environment.
func EnvFromOS() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}
	return env
}

// LoadEnv returns the process environment layered over the variables of a
// dotenv file. Process variables win, matching dotenv's no-override default.
// An empty path skips the file.
func LoadEnv(path string) (Env, error) {
	env := make(Env)
	if path != "" && !(path == DefaultEnvFile && !fileExists(path)) {
		fileEnv, err := gotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", path, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for k, v := range EnvFromOS() {
		env[k] = v
	}
	return env, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
