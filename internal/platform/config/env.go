package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// ProfileEnv names the variable that selects the profile file.
const ProfileEnv = "APP_ENVIRONMENT"

// DefaultProfile is used when ProfileEnv is unset.
const DefaultProfile = "local"

// FromEnvironment exports the variables of the dotenv files that exist,
// without overriding the process environment, then loads the profile named
// by APP_ENVIRONMENT and validates the result. With no files given it
// reads ".env".
func FromEnvironment(dotenv ...string) (*Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}

	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	profile := os.Getenv(ProfileEnv)
	if profile == "" {
		profile = DefaultProfile
	}

	cfg, err := Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
