package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/preverify/internal/app"
)

// envPrefix is stripped from environment variables during config loading
// (e.g., PREVERIFY_API__BASE_URL → api.base_url).
const envPrefix = "PREVERIFY_"

// loadConfig loads application configuration with precedence (lowest first):
// config file → environment variables → CLI flags, then applies defaults and validates.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := k.Load(envProvider(environFunc), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(flagValues(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	config := &app.Config{}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// envProvider maps PREVERIFY_ variables to config keys; a double underscore nests.
// Variables without a nesting separator other than the top-level log settings
// (such as the sealing secret) are not configuration and are skipped.
func envProvider(environFunc func() []string) *env.Env {
	return env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			name := strings.ToLower(strings.TrimPrefix(key, envPrefix))
			if !strings.Contains(name, "__") && !strings.HasPrefix(name, "log_") {
				return "", nil
			}
			return strings.ReplaceAll(name, "__", "."), value
		},
		EnvironFunc: environFunc,
	})
}

// flagValues collects explicitly set CLI flags as config keys, including parent flags.
// Examples: --api--base-url → api.base_url, --log-level → log_level
func flagValues(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	for _, name := range cmd.FlagNames() {
		// Unset flags would shadow values from the file and environment
		if name == "config" || !cmd.IsSet(name) {
			continue
		}

		if value := cmd.Value(name); value != nil {
			key := strings.ReplaceAll(name, "--", ".")
			values[strings.ReplaceAll(key, "-", "_")] = value
		}
	}

	return values
}
