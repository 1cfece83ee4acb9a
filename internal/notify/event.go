package notify

import "time"

// BuildEvent is published after every `campus make`.
type BuildEvent struct {
	BuildID      string    `json:"build_id"`
	Source       string    `json:"source"`
	Output       string    `json:"output"`
	Outcome      string    `json:"outcome"`
	Pages        int       `json:"pages"`
	ChangedPages int       `json:"changed_pages"`
	CopiedFiles  int       `json:"copied_files"`
	BrokenLinks  int       `json:"broken_links"`
	CopyFailures int       `json:"copy_failures"`
	DurationMS   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
