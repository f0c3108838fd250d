package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/buildseq/internal/config"
)

// authMethod returns the go-git AuthMethod for cfg. A nil or "none" config yields no auth.
func authMethod(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg.IsZero() {
		return nil, nil
	}
	switch cfg.Type {
	case config.AuthTypeToken:
		if cfg.Token == "" {
			return nil, errors.New("token authentication requires a token")
		}
		// Most hosting services accept any username alongside a token.
		return &http.BasicAuth{Username: "token", Password: cfg.Token}, nil
	case config.AuthTypeBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, errors.New("basic authentication requires username and password")
		}
		return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
	case config.AuthTypeSSH:
		keyPath := cfg.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		keys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unsupported authentication type %q", cfg.Type)
	}
}
