package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/campus/internal/retry"
)

// FileName is the optional configuration file looked up in the source root.
const FileName = "campus.yaml"

// Config represents the campus configuration.
type Config struct {
	Source      string   `yaml:"source"`
	Output      string   `yaml:"output"`
	ConfigDir   string   `yaml:"config_dir"`
	Template    string   `yaml:"template"`     // relative to ConfigDir
	ContentFile string   `yaml:"content_file"` // per-directory markdown file
	PageFile    string   `yaml:"page_file"`    // per-directory output page
	Assets      []string `yaml:"assets"`       // directories copied from ConfigDir into the output

	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
	Publish PublishConfig `yaml:"publish"`
	Preview PreviewConfig `yaml:"preview"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Root is the directory the configuration was loaded for. Relative paths
	// resolve against it.
	Root string `yaml:"-"`
}

// BuildConfig controls generation.
type BuildConfig struct {
	Scanner string `yaml:"scanner"` // regex | html
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// HistoryConfig controls the build history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty: <config_dir>/history.db
}

// NotifyConfig controls build-completed events. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// PublishTarget selects where `campus push` sends the output tree.
type PublishTarget string

const (
	PublishGit PublishTarget = "git"
	PublishS3  PublishTarget = "s3"
)

// PublishConfig controls `campus push`.
type PublishConfig struct {
	Target  PublishTarget `yaml:"target"`
	Message string        `yaml:"message"`
	Remote  string        `yaml:"remote"`
	S3      S3Config      `yaml:"s3"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig controls retries of transient push failures.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff"` // fixed | linear | exponential
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries int           `yaml:"max_retries"`
}

// Policy converts the settings into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.NewPolicy(retry.Mode(r.Backoff), r.Initial, r.Max, r.MaxRetries)
}

// S3Config describes an S3-compatible bucket.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// PreviewConfig controls `campus serve`.
type PreviewConfig struct {
	Port int `yaml:"port"`
	// RebuildInterval schedules periodic rebuilds in addition to file watching; zero disables.
	RebuildInterval time.Duration `yaml:"rebuild_interval"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration for root.
func Default(root string) *Config {
	cfg := &Config{
		Source:      ".",
		Output:      "html",
		ConfigDir:   ".campus-config",
		Template:    "index.html",
		ContentFile: "index.md",
		PageFile:    "index.html",
		Assets:      []string{"css", "pic"},
		Build:       BuildConfig{Scanner: "regex"},
		Logging:     LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		History:     HistoryConfig{Enabled: true},
		Notify:      NotifyConfig{Subject: "campus.builds"},
		Publish: PublishConfig{
			Target: PublishGit,
			Remote: "origin",
			Retry:  RetryConfig{Backoff: string(retry.ModeLinear), Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2},
		},
		Preview:     PreviewConfig{Port: 8000},
		Metrics:     MetricsConfig{Enabled: true},
		Root:        root,
	}
	return cfg
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}

// SourceDir returns the absolute source root.
func (c *Config) SourceDir() string { return c.resolve(c.Source) }

// OutputDir returns the absolute output root.
func (c *Config) OutputDir() string { return c.resolve(c.Output) }

// ConfigPath returns the absolute configuration directory.
func (c *Config) ConfigPath() string { return c.resolve(c.ConfigDir) }

// TemplatePath returns the absolute page template path.
func (c *Config) TemplatePath() string {
	if filepath.IsAbs(c.Template) {
		return c.Template
	}
	return filepath.Join(c.ConfigPath(), c.Template)
}

// HistoryPath returns the absolute history database path, which defaults to
// history.db inside the configuration directory.
func (c *Config) HistoryPath() string {
	if c.History.Path == "" {
		return filepath.Join(c.ConfigPath(), "history.db")
	}
	return c.resolve(c.History.Path)
}
