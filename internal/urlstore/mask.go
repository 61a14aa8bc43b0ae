package urlstore

import (
	"net/url"
	"strings"
)

// MaskCredentials hides embedded userinfo in a stream URL for display
// surfaces. "user:pass@host" becomes "***:***@host", "user@host" becomes
// "***@host". Input that does not parse as a URL is returned unchanged so
// the user can still recognize their entry.
func MaskCredentials(raw string) string {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return ""
	}

	parsed, err := url.Parse(normalized)
	if err != nil || parsed.User == nil {
		return normalized
	}

	if _, hasPassword := parsed.User.Password(); hasPassword {
		parsed.User = url.UserPassword("***", "***")
	} else {
		parsed.User = url.User("***")
	}
	return parsed.String()
}
