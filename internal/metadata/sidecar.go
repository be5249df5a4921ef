// Package metadata reads the optional YAML sidecar that can accompany a
// media file and resolves the file's capture date.
package metadata

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the canonical capture date format.
const DateLayout = "2006-01-02"

// dateKeys are checked in order; the first non-empty one wins.
var dateKeys = []string{"date", "taken", "created"}

// Sidecar holds the fields chronogrid reads from a sidecar file.
type Sidecar struct {
	// Date is the capture date as written, or empty when the sidecar has none.
	Date  string
	Title string
	// Tags are distinct, in document order.
	Tags  []string
}

// Parse decodes sidecar YAML. An empty document yields an empty Sidecar.
func Parse(data []byte) (*Sidecar, error) {
	var fields map[string]interface{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("metadata: parse sidecar: %w", err)
	}
	sc := &Sidecar{}
	for _, k := range dateKeys {
		if d := dateValue(fields[k]); d != "" {
			sc.Date = d
			break
		}
	}
	if t, ok := fields["title"].(string); ok {
		sc.Title = strings.TrimSpace(t)
	}
	sc.Tags = tagValues(fields["tags"])
	return sc, nil
}

// tagValues accepts a YAML list or a single comma-separated string.
func tagValues(v interface{}) []string {
	var raw []string
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(t, ",")
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// dateValue normalises a decoded YAML value. Unquoted dates decode to
// time.Time; anything else is kept verbatim so that malformed values stay
// visible downstream.
func dateValue(v interface{}) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format(DateLayout)
	case string:
		return strings.TrimSpace(d)
	case int:
		return fmt.Sprint(d)
	default:
		return ""
	}
}

// ResolveDate returns the sidecar date when present, otherwise the file
// modification date.
func ResolveDate(sc *Sidecar, modTime time.Time) string {
	if sc != nil && sc.Date != "" {
		return sc.Date
	}
	if modTime.IsZero() {
		return ""
	}
	return modTime.Format(DateLayout)
}

// WithDate returns the sidecar document data with its date set to date.
// Other fields are kept; an alternative date key is replaced by "date".
func WithDate(data []byte, date string) ([]byte, error) {
	fields := map[string]interface{}{}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("metadata: parse sidecar: %w", err)
		}
		if fields == nil {
			fields = map[string]interface{}{}
		}
	}
	for _, k := range dateKeys {
		delete(fields, k)
	}
	fields["date"] = date
	out, err := yaml.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("metadata: encode sidecar: %w", err)
	}
	return out, nil
}
