// Package letterboxd loads Letterboxd diary and ratings exports into typed
// entries, rejecting files that do not look like the expected export.
package letterboxd
