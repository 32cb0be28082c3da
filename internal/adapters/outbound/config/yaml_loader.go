// Package config reads .netharden.yaml and the NETHARDEN_* environment
// overrides into the runtime settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const fileName = ".netharden.yaml"

// Settings is the full runtime configuration: controller connection,
// default policy file, and scanner tuning.
type Settings struct {
	ControllerURL string `yaml:"controller_url"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	Site          string `yaml:"site"`
	VerifySSL     bool   `yaml:"verify_ssl"`
	TimeoutSecs   int    `yaml:"timeout_seconds"`

	PolicyFile string `yaml:"policy_file"`

	NmapPath        string `yaml:"nmap_path"`
	NmapTimeoutSecs int    `yaml:"nmap_timeout_seconds"`
}

// DefaultSettings returns the settings used when no file and no
// environment overrides are present.
func DefaultSettings() Settings {
	return Settings{
		Site:            "default",
		TimeoutSecs:     30,
		NmapPath:        "nmap",
		NmapTimeoutSecs: 300,
	}
}

func (s Settings) Timeout() time.Duration     { return time.Duration(s.TimeoutSecs) * time.Second }
func (s Settings) NmapTimeout() time.Duration { return time.Duration(s.NmapTimeoutSecs) * time.Second }

// Validate checks that the settings can reach a controller.
func (s Settings) Validate() error {
	if s.ControllerURL == "" {
		return errors.New("controller_url is required (set it in .netharden.yaml or NETHARDEN_CONTROLLER_URL)")
	}
	if s.Username == "" || s.Password == "" {
		return errors.New("controller credentials are required")
	}
	return nil
}

// Load reads .netharden.yaml from dir, then applies NETHARDEN_*
// environment overrides. A missing file is not an error; environment
// variables alone can configure everything.
func Load(dir string) (Settings, error) {
	cfg := DefaultSettings()

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Settings{}, fmt.Errorf("parsing %s: %w", fileName, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// fall through to environment overrides
	default:
		return Settings{}, err
	}

	applyEnv(&cfg)

	if cfg.Site == "" {
		cfg.Site = "default"
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = 30
	}
	return cfg, nil
}

func applyEnv(cfg *Settings) {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString(&cfg.ControllerURL, "NETHARDEN_CONTROLLER_URL")
	setString(&cfg.Username, "NETHARDEN_USERNAME")
	setString(&cfg.Password, "NETHARDEN_PASSWORD")
	setString(&cfg.Site, "NETHARDEN_SITE")
	setString(&cfg.PolicyFile, "NETHARDEN_POLICY_FILE")
	setString(&cfg.NmapPath, "NETHARDEN_NMAP_PATH")

	if v, ok := os.LookupEnv("NETHARDEN_VERIFY_SSL"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.VerifySSL = b
		}
	}
	if v, ok := os.LookupEnv("NETHARDEN_TIMEOUT_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSecs = n
		}
	}
}
