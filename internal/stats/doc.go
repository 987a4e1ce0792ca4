// Package stats turns a Letterboxd diary and ratings log into one year's
// viewing statistics.
//
// SelectYear picks the analysis year and Compute performs the aggregation.
// Both are pure: they hold no state between calls and never fail on
// individual malformed rows, which are excluded rather than rejected. An empty
// filtered year is reported as ok=false, not as an error.
package stats
