//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run via `go run` or installed globally and are not
// imported by application code.
package tools

// Development tools:
//
// mockgen - generates gomock doubles for the interfaces in internal/ports
//   Run: go generate ./internal/mocks/...
//   Version: v0.6.0 (pinned in the go:generate directive)
//   Docs: https://github.com/uber-go/mock
