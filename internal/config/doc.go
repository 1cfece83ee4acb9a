// Package config loads campus.yaml. Every field has a default, so a source
// root without a configuration file is valid.
package config
