package config

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// ErrKeyNotFound is returned by LookupEnvFile when no line sets the key.
var ErrKeyNotFound = errors.New("key not found")

// LookupEnvFile returns the value of the first KEY=VALUE line whose key is
// exactly key. Everything after the first '=' is the value, trimmed.
func LookupEnvFile(path, key string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is configuration
	if err != nil {
		return "", err
	}
	defer f.Close()

	prefix := key + "="
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if value, ok := strings.CutPrefix(scanner.Text(), prefix); ok {
			return strings.TrimSpace(value), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrKeyNotFound
}
