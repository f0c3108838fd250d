package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
)

// envFiles are loaded in order. godotenv never overrides variables that are already set,
// so earlier files and the process environment take precedence.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, name := range envFiles {
		err := godotenv.Load(name)
		switch {
		case err == nil:
			slog.Debug("Loaded environment file", logfields.Path(name))
		case errors.Is(err, fs.ErrNotExist):
		default:
			slog.Warn("Failed to load environment file", logfields.Path(name), logfields.Error(err))
		}
	}
}
