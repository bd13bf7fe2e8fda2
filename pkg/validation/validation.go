package validation

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	e164Pattern = regexp.MustCompile(`^\+[1-9]\d{9,14}$`)
	hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// IsE164Phone reports whether value is an international number: '+', a
// non-zero leading digit and 10 to 15 digits in total.
func IsE164Phone(value string) bool {
	return e164Pattern.MatchString(value)
}

// IsHHMM reports whether value is a 24-hour HH:mm time.
func IsHHMM(value string) bool {
	return hhmmPattern.MatchString(value)
}

// Minutes converts an HH:mm value to minutes after midnight.
func Minutes(value string) (int, bool) {
	if !IsHHMM(value) {
		return 0, false
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// IsHTTPURL reports whether value is an absolute http(s) URL.
func IsHTTPURL(value string) bool {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
