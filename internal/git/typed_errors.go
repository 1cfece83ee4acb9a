package git

import (
	"fmt"
	"strings"
)

// Typed git errors enabling structured classification without string parsing upstream.
type AuthError struct {
	Op, Remote string
	Err        error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.Remote, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

type RemoteRejectedError struct {
	Op, Remote string
	Err        error
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("%s rejected by %s (pull and merge first): %v", e.Op, e.Remote, e.Err)
}
func (e *RemoteRejectedError) Unwrap() error { return e.Err }

// classifyPushError wraps push failures into typed variants when possible.
func classifyPushError(remote string, err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "auth"):
		return &AuthError{Op: "push", Remote: remote, Err: err}
	case strings.Contains(l, "non-fast-forward") || strings.Contains(l, "rejected"):
		return &RemoteRejectedError{Op: "push", Remote: remote, Err: err}
	default:
		return err
	}
}
