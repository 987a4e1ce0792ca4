// Package csvrecords turns exported comma-separated text into ordered,
// header-keyed records.
//
// The parser is deliberately lenient: a leading byte order mark is dropped,
// line endings are normalized, blank lines are skipped, and rows whose cell
// count disagrees with the header are discarded instead of failing the whole
// file. Parse never returns an error.
package csvrecords
