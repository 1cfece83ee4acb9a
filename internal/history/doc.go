// Package history keeps a local SQLite record of builds and the fingerprints
// of the pages each build wrote. It reports how many pages changed between
// builds; it never drives what is generated.
package history
