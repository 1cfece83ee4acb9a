package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/retry"
)

// Validate checks a decoded configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ValidationError("configuration is nil").Build()
	}
	for _, check := range []func(*Config) error{validateFiles, validateBuild, validateLogging, validatePublish, validatePreview} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateFiles(cfg *Config) error {
	if strings.TrimSpace(cfg.ContentFile) == "" {
		return errors.ValidationError("content_file must not be empty").WithContext("field", "content_file").Build()
	}
	if strings.TrimSpace(cfg.PageFile) == "" {
		return errors.ValidationError("page_file must not be empty").WithContext("field", "page_file").Build()
	}
	if strings.ContainsAny(cfg.ContentFile+cfg.PageFile, `/\`) {
		return errors.ValidationError("content_file and page_file must be plain file names").
			WithContext("content_file", cfg.ContentFile).
			WithContext("page_file", cfg.PageFile).
			Build()
	}
	return nil
}

func validateBuild(cfg *Config) error {
	switch cfg.Build.Scanner {
	case "regex", "html":
		return nil
	default:
		return errors.ValidationError("unknown link scanner").WithContext("scanner", cfg.Build.Scanner).Build()
	}
}

func validateLogging(cfg *Config) error {
	switch cfg.Logging.Format {
	case LogFormatText, LogFormatJSON:
		return nil
	default:
		return errors.ValidationError("unknown log format").WithContext("format", string(cfg.Logging.Format)).Build()
	}
}

func validatePublish(cfg *Config) error {
	switch retry.Mode(strings.ToLower(cfg.Publish.Retry.Backoff)) {
	case "", retry.ModeFixed, retry.ModeLinear, retry.ModeExponential:
	default:
		return errors.ValidationError("unknown retry backoff").WithContext("backoff", cfg.Publish.Retry.Backoff).Build()
	}
	if cfg.Publish.Retry.MaxRetries < 0 {
		return errors.ValidationError("max_retries must not be negative").Build()
	}
	switch cfg.Publish.Target {
	case PublishGit:
		return nil
	case PublishS3:
		if cfg.Publish.S3.Endpoint == "" || cfg.Publish.S3.Bucket == "" {
			return errors.ValidationError("s3 publishing requires endpoint and bucket").
				WithContext("endpoint", cfg.Publish.S3.Endpoint).
				WithContext("bucket", cfg.Publish.S3.Bucket).
				Build()
		}
		return nil
	default:
		return errors.ValidationError("unknown publish target").WithContext("target", string(cfg.Publish.Target)).Build()
	}
}

func validatePreview(cfg *Config) error {
	if cfg.Preview.Port < 0 || cfg.Preview.Port > 65535 {
		return errors.ValidationError("preview port out of range").WithContext("port", cfg.Preview.Port).Build()
	}
	if cfg.Preview.RebuildInterval < 0 {
		return errors.ValidationError("rebuild_interval must not be negative").Build()
	}
	return nil
}

// CheckOutputDir refuses output locations whose removal would destroy the
// source tree or the configuration directory.
func (c *Config) CheckOutputDir() error {
	out := filepath.Clean(c.OutputDir())
	for _, protected := range []string{c.Root, c.SourceDir(), c.ConfigPath()} {
		protected = filepath.Clean(protected)
		if out == protected || strings.HasPrefix(protected, out+string(filepath.Separator)) {
			return errors.ValidationError("output directory would contain the source or configuration").
				WithContext("output", out).
				WithContext("path", protected).
				Build()
		}
	}
	return nil
}
