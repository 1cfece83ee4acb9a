package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDir        = "dir"
	KeyPath       = "path"
	KeyTarget     = "target"
	KeyHref       = "href"
	KeyLabel      = "label"
	KeyKind       = "kind"
	KeyDepth      = "depth"
	KeyStage      = "stage"
	KeyBuildID    = "build_id"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyRemote     = "remote"
	KeyBucket     = "bucket"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Dir(d string) slog.Attr        { return slog.String(KeyDir, d) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Target(p string) slog.Attr     { return slog.String(KeyTarget, p) }
func Href(h string) slog.Attr       { return slog.String(KeyHref, h) }
func Label(l string) slog.Attr      { return slog.String(KeyLabel, l) }
func Kind(k string) slog.Attr       { return slog.String(KeyKind, k) }
func Depth(d int) slog.Attr         { return slog.Int(KeyDepth, d) }
func Stage(name string) slog.Attr   { return slog.String(KeyStage, name) }
func BuildID(id string) slog.Attr   { return slog.String(KeyBuildID, id) }
func Count(n int) slog.Attr         { return slog.Int(KeyCount, n) }
func Remote(r string) slog.Attr     { return slog.String(KeyRemote, r) }
func Bucket(b string) slog.Attr     { return slog.String(KeyBucket, b) }
func Subject(s string) slog.Attr    { return slog.String(KeySubject, s) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
