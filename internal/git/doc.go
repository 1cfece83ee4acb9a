// Package git wraps the go-git operations campus needs: initializing the
// source and output repositories, committing their changes and pushing them.
//
// A Client in dry-run mode performs no repository mutation; it prints the
// equivalent git command lines instead.
package git
