package ml

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

const NumFeatures = 14

// URLFeatures holds the lexical and host-based signals of a single URL.
// FeatureVector flattens it in the order given by FeatureNames; models are
// trained and served on that order.
type URLFeatures struct {
	URLLength        int
	NumDots          int
	NumHyphens       int
	NumUnderscores   int
	NumSlashes       int
	NumQuestionMarks int
	NumEquals        int
	NumAtSymbols     int
	NumAmpersands    int
	NumDotsHostname  int
	HasIPAddress     bool
	UsesHTTPS        bool
	HasSuspiciousTLD bool
	IsShortened      bool

	Hostname string
}

var suspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".pw", ".cc", ".zip"}

var shortenerDomains = map[string]struct{}{
	"bit.ly":      {},
	"bitly.com":   {},
	"tinyurl.com": {},
	"goo.gl":      {},
	"t.co":        {},
	"ow.ly":       {},
	"is.gd":       {},
	"buff.ly":     {},
	"rebrand.ly":  {},
	"cutt.ly":     {},
}

var ipv4Pattern = regexp.MustCompile(`^(?i:(0x[0-9a-f]{1,2}|\d{1,3})\.(0x[0-9a-f]{1,2}|\d{1,3})\.(0x[0-9a-f]{1,2}|\d{1,3})\.(0x[0-9a-f]{1,2}|\d{1,3}))$`)

func ExtractFeatures(url string) URLFeatures {
	parts := splitURL(url)
	host := parts.Hostname

	return URLFeatures{
		URLLength:        utf8.RuneCountInString(url),
		NumDots:          strings.Count(url, "."),
		NumHyphens:       strings.Count(url, "-"),
		NumUnderscores:   strings.Count(url, "_"),
		NumSlashes:       strings.Count(url, "/"),
		NumQuestionMarks: strings.Count(url, "?"),
		NumEquals:        strings.Count(url, "="),
		NumAtSymbols:     strings.Count(url, "@"),
		NumAmpersands:    strings.Count(url, "&"),
		NumDotsHostname:  strings.Count(host, "."),
		HasIPAddress:     isIPv4Literal(host),
		UsesHTTPS:        parts.Scheme == "https",
		HasSuspiciousTLD: hasSuspiciousSuffix(host),
		IsShortened:      isShortenerHost(host),
		Hostname:         host,
	}
}

func FeatureVector(f URLFeatures) []float64 {
	return []float64{
		float64(f.URLLength),
		float64(f.NumDots),
		float64(f.NumHyphens),
		float64(f.NumUnderscores),
		float64(f.NumSlashes),
		float64(f.NumQuestionMarks),
		float64(f.NumEquals),
		float64(f.NumAtSymbols),
		float64(f.NumAmpersands),
		float64(f.NumDotsHostname),
		boolToFloat(f.HasIPAddress),
		boolToFloat(f.UsesHTTPS),
		boolToFloat(f.HasSuspiciousTLD),
		boolToFloat(f.IsShortened),
	}
}

func ExtractFeatureVector(url string) []float64 {
	return FeatureVector(ExtractFeatures(url))
}

func FeatureNames() []string {
	return []string{
		"url_length",
		"num_dots",
		"num_hyphens",
		"num_underscores",
		"num_slashes",
		"num_question_marks",
		"num_equals",
		"num_at_symbols",
		"num_ampersands",
		"num_dots_hostname",
		"has_ip_address",
		"uses_https",
		"has_suspicious_tld",
		"is_shortened",
	}
}

func Hostname(url string) string {
	return splitURL(url).Hostname
}

func HasIPAddress(url string) int {
	return boolToInt(isIPv4Literal(Hostname(url)))
}

func UsesHTTPS(url string) int {
	return boolToInt(splitURL(url).Scheme == "https")
}

func HasSuspiciousTLD(url string) int {
	return boolToInt(hasSuspiciousSuffix(Hostname(url)))
}

func IsShortened(url string) int {
	return boolToInt(isShortenerHost(Hostname(url)))
}

func SuspiciousTLDs() []string {
	return append([]string(nil), suspiciousTLDs...)
}

func ShortenerDomains() []string {
	domains := make([]string, 0, len(shortenerDomains))
	for d := range shortenerDomains {
		domains = append(domains, d)
	}
	slices.Sort(domains)
	return domains
}

func isIPv4Literal(host string) bool {
	m := ipv4Pattern.FindStringSubmatch(host)
	if m == nil {
		return false
	}
	for _, group := range m[1:] {
		var (
			v   uint64
			err error
		)
		if len(group) > 2 && (group[:2] == "0x" || group[:2] == "0X") {
			v, err = strconv.ParseUint(group[2:], 16, 16)
		} else {
			v, err = strconv.ParseUint(group, 10, 16)
		}
		if err != nil || v > 255 {
			return false
		}
	}
	return true
}

func hasSuspiciousSuffix(host string) bool {
	if host == "" {
		return false
	}
	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	return false
}

func isShortenerHost(host string) bool {
	_, ok := shortenerDomains[host]
	return ok
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
