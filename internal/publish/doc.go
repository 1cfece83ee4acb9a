// Package publish implements `campus push`: the source tree is committed and
// pushed, the site is rebuilt, and the output tree is published either to its
// own git remote or to an S3-compatible bucket.
package publish
