package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const exampleHeader = `# buildseq configuration.
# Every field is optional; the values below are the defaults.
# ${VAR} references are expanded from the environment and from .env/.env.local.
`

// Init writes an example configuration file containing the defaults.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := Default()
	example.CSS.Minifier = Command{Name: "npx", Args: []string{"cleancss"}}
	example.Publish.Auth = &AuthConfig{Type: AuthTypeToken, Token: "${GH_TOKEN}"}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(exampleHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
