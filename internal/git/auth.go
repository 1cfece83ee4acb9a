package git

import (
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Environment variables read by AuthFromEnv.
const (
	EnvToken    = "CAMPUS_GIT_TOKEN"
	EnvUsername = "CAMPUS_GIT_USERNAME"
)

// AuthFromEnv returns token authentication for HTTPS remotes when
// CAMPUS_GIT_TOKEN is set, and nil otherwise (SSH remotes then use the agent).
func AuthFromEnv() transport.AuthMethod {
	token := os.Getenv(EnvToken)
	if token == "" {
		return nil
	}
	user := os.Getenv(EnvUsername)
	if user == "" {
		user = "campus"
	}
	return &http.BasicAuth{Username: user, Password: token}
}
