package csvrecords

import (
	"fmt"
	"io"
	"strings"
)

const byteOrderMark = "\ufeff"

// Parse converts raw export text into records. Fewer than two non-empty lines
// (header plus one row) yields an empty slice.
func Parse(text string) []Record {
	text = strings.TrimPrefix(text, byteOrderMark)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return []Record{}
	}

	headers := splitLine(lines[0])
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := splitLine(line)
		if len(cells) != len(headers) {
			continue
		}
		records = append(records, NewRecord(headers, cells))
	}
	return records
}

// ParseReader reads r fully and parses it. The only error is a read failure.
func ParseReader(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return Parse(string(data)), nil
}

// splitLine splits on commas outside quoted sections. A quote toggles quoted
// mode wherever it appears and is not copied into the cell, so an escaped
// quote pair ("") collapses to nothing.
func splitLine(line string) []string {
	var (
		cells   []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			cells = append(cells, cleanCell(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	cells = append(cells, cleanCell(current.String()))
	return cells
}

func cleanCell(raw string) string {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, `"`)
	v = strings.TrimSuffix(v, `"`)
	return strings.TrimSpace(v)
}
