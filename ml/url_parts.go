package ml

import (
	"regexp"
	"strings"
)

var schemePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.\-]*):`)

type urlParts struct {
	Scheme   string
	Hostname string
}

// splitURL is a lenient stand-in for net/url. It never fails: anything it
// cannot make sense of yields an empty scheme or hostname. When the first
// pass finds no authority the input is re-read as if it were prefixed with
// "//", so bare inputs like "example.com/login" still produce a hostname.
func splitURL(raw string) urlParts {
	s := strings.TrimSpace(raw)

	var parts urlParts
	rest := s
	if m := schemePattern.FindStringSubmatch(s); m != nil {
		parts.Scheme = strings.ToLower(m[1])
		rest = s[len(m[0]):]
	}

	parts.Hostname = authorityHost(rest)
	if parts.Hostname == "" && !strings.HasPrefix(s, "//") {
		parts.Hostname = authorityHost("//" + s)
	}
	return parts
}

func authorityHost(s string) string {
	if !strings.HasPrefix(s, "//") {
		return ""
	}
	authority := s[2:]
	if i := strings.IndexAny(authority, "/?#\\"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}

	if strings.HasPrefix(authority, "[") {
		end := strings.Index(authority, "]")
		if end < 0 {
			return ""
		}
		return strings.ToLower(authority[1:end])
	}
	if i := strings.LastIndex(authority, ":"); i >= 0 {
		authority = authority[:i]
	}
	return strings.ToLower(authority)
}
