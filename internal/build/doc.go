// Package build provides the `campus make` pipeline.
//
// All execution paths (CLI, preview server, scheduled rebuilds) route through
// BuildService: the output directory is emptied (its .git is kept), the style
// assets are copied from the configuration directory, the site walker runs from
// the source root, and the outcome is recorded in metrics, history and the
// optional build notification.
package build
