package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const snippetLimit = 120

// DecodeLLMJSON unmarshals the JSON object in a model reply into target.
// Models sometimes wrap the object in a ```json fence or surround it with
// prose; both are stripped before decoding.
func DecodeLLMJSON(content string, target any) error {
	object, ok := extractObject(content)
	if !ok {
		if strings.TrimSpace(content) == "" {
			return errors.New("empty reply")
		}
		return fmt.Errorf("no json object in reply: %s", snippet(content))
	}
	if err := json.Unmarshal([]byte(object), target); err != nil {
		return fmt.Errorf("%w (reply: %s)", err, snippet(object))
	}
	return nil
}

// extractObject returns the outermost {...} span of s after dropping any
// markdown fence.
func extractObject(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		rest = strings.TrimPrefix(strings.TrimLeft(rest, " "), "json")
		if body, _, closed := strings.Cut(rest, "```"); closed {
			rest = body
		}
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > snippetLimit {
		return string(r[:snippetLimit]) + "..."
	}
	return s
}
