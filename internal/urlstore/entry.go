package urlstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SavedEntry is one saved stream. The JSON field names are the persisted
// format under the saved_urls_v1 settings key.
type SavedEntry struct {
	URL        string `json:"url"`
	Label      string `json:"label"`
	Pinned     bool   `json:"pinned"`
	LastUsedAt int64  `json:"last_used_at"`
}

// parseEntry converts one raw JSON array element into a SavedEntry.
// Earlier releases wrote the timestamp as "lastUsedAt" and some wrote numeric
// fields as strings, so every field is coerced rather than strictly typed.
// An element that is not an object, or has no usable url, is an error the
// caller discards.
func parseEntry(raw json.RawMessage) (SavedEntry, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return SavedEntry{}, fmt.Errorf("not an object: %w", err)
	}

	url := strings.TrimSpace(coerceString(fields["url"]))
	if url == "" {
		return SavedEntry{}, fmt.Errorf("missing url")
	}

	var ts int64
	if value, present := fields["last_used_at"]; present {
		ts, _ = coerceInt64(value)
	} else {
		// Legacy field name, consulted only when the canonical one is absent.
		ts, _ = coerceInt64(fields["lastUsedAt"])
	}

	return SavedEntry{
		URL:        url,
		Label:      strings.TrimSpace(coerceString(fields["label"])),
		Pinned:     coerceBool(fields["pinned"]),
		LastUsedAt: ts,
	}, nil
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}
