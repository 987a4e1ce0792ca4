package csvrecords

// Record is one data row keyed by header name. Column order follows the header
// so positional fallbacks stay meaningful.
type Record struct {
	keys   []string
	values []string
	index  map[string]int
}

// NewRecord builds a record from parallel key and value slices. Extra values
// or keys beyond the shorter slice are ignored. When a header repeats, the last
// column with that name wins for Get and Lookup.
func NewRecord(keys, values []string) Record {
	n := len(keys)
	if len(values) < n {
		n = len(values)
	}
	r := Record{
		keys:   append([]string(nil), keys[:n]...),
		values: append([]string(nil), values[:n]...),
		index:  make(map[string]int, n),
	}
	for i, key := range r.keys {
		r.index[key] = i
	}
	return r
}

// Get returns the value for key, or "" when the column is absent.
func (r Record) Get(key string) string {
	v, _ := r.Lookup(key)
	return v
}

// Lookup returns the value for key and whether the column exists.
func (r Record) Lookup(key string) (string, bool) {
	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.values[i], true
}

// Len reports the number of columns.
func (r Record) Len() int {
	return len(r.keys)
}

// At returns the key and value of column i.
func (r Record) At(i int) (string, string, bool) {
	if i < 0 || i >= len(r.keys) {
		return "", "", false
	}
	return r.keys[i], r.values[i], true
}
