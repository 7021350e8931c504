package postgres

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "marching-knights-portal"
	keyringUser    = "postgres-dsn"
)

// ErrNoDSN is returned when neither config nor keyring holds a connection string
var ErrNoDSN = errors.New("no postgres connection string configured")

// ResolveDSN returns the configured DSN, falling back to the OS keyring
func ResolveDSN(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	dsn, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoDSN
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return dsn, nil
}

// StoreDSN saves the connection string in the OS keyring
func StoreDSN(dsn string) error {
	if dsn == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(keyringService, keyringUser, dsn); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	return nil
}
