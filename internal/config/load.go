package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/campus/internal/errors"
)

// envFiles are loaded from the root before the configuration is expanded.
// Variables already set in the process environment win.
var envFiles = []string{".env", ".env.local"}

// Load reads campus.yaml from root when present. A missing file yields the
// defaults. Environment variables (after loading root/.env and root/.env.local)
// are expanded in the file before decoding.
func Load(root string) (*Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve root").WithContext("path", root).Build()
	}
	if err := loadEnvFiles(abs); err != nil {
		return nil, err
	}

	path := filepath.Join(abs, FileName)
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case os.IsNotExist(err):
		cfg := Default(abs)
		return cfg, Validate(cfg)
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration").
			WithContext("path", path).
			Build()
	}
	return Parse(abs, data)
}

// Parse decodes configuration bytes for root over the defaults, then
// normalizes and validates the result.
func Parse(root string, data []byte) (*Config, error) {
	cfg := Default(root)
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "decode configuration").
			WithContext("path", filepath.Join(root, FileName)).
			Build()
	}
	cfg.Root = root
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles(root string) error {
	var present []string
	for _, name := range envFiles {
		p := filepath.Join(root, name)
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "load environment file").
			WithContext("path", strings.Join(present, ",")).
			Build()
	}
	return nil
}

// applyDefaults restores defaults for fields explicitly set to empty values.
func applyDefaults(cfg *Config) {
	def := Default(cfg.Root)
	if cfg.Source == "" {
		cfg.Source = def.Source
	}
	if cfg.Output == "" {
		cfg.Output = def.Output
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = def.ConfigDir
	}
	if cfg.Template == "" {
		cfg.Template = def.Template
	}
	if cfg.Build.Scanner == "" {
		cfg.Build.Scanner = def.Build.Scanner
	}
	cfg.Build.Scanner = strings.ToLower(strings.TrimSpace(cfg.Build.Scanner))
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = def.Notify.Subject
	}
	if cfg.Publish.Target == "" {
		cfg.Publish.Target = def.Publish.Target
	}
	cfg.Publish.Target = PublishTarget(strings.ToLower(string(cfg.Publish.Target)))
	if cfg.Publish.Remote == "" {
		cfg.Publish.Remote = def.Publish.Remote
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = def.Preview.Port
	}
}
