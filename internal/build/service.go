package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/site"
)

// BuildService is the canonical interface for executing site builds.
type BuildService interface {
	// Run executes a complete build: prepare output, copy assets, walk, record.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config
	// Reason is logged and recorded with the build (e.g. "cli", "watch", "schedule").
	Reason string
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	BuildID string
	Status  BuildStatus

	// Report is the walker report; nil when the build failed before generation.
	Report *site.Report

	OutputPath   string
	ChangedPages int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusSuccess BuildStatus = "success"
	// BuildStatusWarning indicates pages were generated with non-fatal issues.
	BuildStatusWarning   BuildStatus = "warning"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if a complete output tree was produced.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusWarning
}
