package engine

import (
	"sort"
	"strconv"
	"strings"
)

// ErrorMapping splits a server error payload into field messages and
// form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapErrorPayload resolves the keys of payload (JSON pointers, dotted or
// bracketed paths) against the given field identifiers. The longest matching
// identifier wins, so "range/to" lands on a "range" field. Keys that match
// nothing become form-level messages.
func MapErrorPayload(fields []string, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	known := make(map[string]struct{}, len(fields))
	for _, id := range fields {
		known[id] = struct{}{}
	}

	for _, key := range sortedKeys(payload) {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		field, ok := resolveErrorPath(key, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[field] = normalizeMessages(append(mapping.Fields[field], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func resolveErrorPath(raw string, known map[string]struct{}) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	if _, ok := known[strings.TrimSpace(raw)]; ok {
		return strings.TrimSpace(raw), true
	}
	segments := splitErrorPath(raw)
	if len(segments) == 0 {
		return "", false
	}

	best, depth := "", 0
	for _, variant := range pathVariants(segments) {
		for end := len(variant); end > depth; end-- {
			candidate := strings.Join(variant[:end], ".")
			if _, ok := known[candidate]; ok {
				best, depth = candidate, end
				break
			}
		}
	}
	return best, best != ""
}

func splitErrorPath(path string) []string {
	clean := strings.TrimSpace(path)
	for _, prefix := range []string{"#/", "$/", "$."} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	clean = strings.TrimLeft(clean, "#/.$")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)

	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

// pathVariants yields the path as given, without envelope segments such as
// "body" or "data", and without array indexes.
func pathVariants(segments []string) [][]string {
	unwrapped := segments
	for len(unwrapped) > 0 {
		switch strings.ToLower(unwrapped[0]) {
		case "body", "request", "payload", "data", "attributes", "values":
			unwrapped = unwrapped[1:]
			continue
		}
		break
	}
	return [][]string{segments, unwrapped, withoutIndexes(segments), withoutIndexes(unwrapped)}
}

func withoutIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if _, err := strconv.Atoi(s); err == nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
