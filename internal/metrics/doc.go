// Package metrics registers the Prometheus collectors exported on /metrics
// and offers small Record helpers so callers never touch label plumbing.
package metrics
