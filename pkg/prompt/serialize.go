package prompt

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Serialize renders a submit payload in the given format.
func Serialize(format OutputFormat, payload map[string]any) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		flatten("", payload, form)
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		writePretty(&b, "", payload)
		return []byte(b.String()), nil
	case OutputFormatJSON, "":
		return json.Marshal(payload)
	default:
		return nil, fmt.Errorf("prompt: unsupported output format %q", format)
	}
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			flatten(join(prefix, key), v[key], out)
		}
	case []any:
		for _, item := range v {
			out.Add(prefix+"[]", fmt.Sprint(item))
		}
	case nil:
		out.Set(prefix, "")
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			writePretty(b, join(prefix, key), v[key])
		}
	case []any:
		for idx, item := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), item)
		}
	case nil:
		if prefix != "" {
			fmt.Fprintf(b, "%s=\n", prefix)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
