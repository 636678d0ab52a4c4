// Package normalize turns scraped text into clean, comparable values.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// junk matches runes that never belong in a business field: map UI icon glyphs
// (private use), zero-width marks and control characters.
var junk = runes.Predicate(func(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u200e', '\u200f', '\ufeff':
		return true
	}
	if unicode.Is(unicode.Co, r) {
		return true
	}
	return unicode.IsControl(r) && !unicode.IsSpace(r)
})

// Clean applies NFKC, strips junk runes and collapses whitespace.
func Clean(s string) string {
	t := transform.Chain(norm.NFKC, runes.Remove(junk))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// decorative separators that listings wrap around names
const separators = "·•|-–—:,;"

// BusinessName cleans a listing title
func BusinessName(s string) string {
	return strings.Trim(Clean(s), separators+" ")
}

var addressLabel = regexp.MustCompile(`(?i)^address:\s*`)

// Address cleans a street address and drops the accessibility label
func Address(s string) string {
	s = addressLabel.ReplaceAllString(Clean(s), "")
	return strings.Trim(s, separators+" ")
}

var phoneLabel = regexp.MustCompile(`(?i)^(tel:|phone:\s*)`)

// dialCodes maps ISO country codes to their international calling code
var dialCodes = map[string]string{
	"US": "1", "CA": "1", "GB": "44", "IE": "353", "DE": "49", "FR": "33",
	"ES": "34", "IT": "39", "NL": "31", "BE": "32", "AT": "43", "CH": "41",
	"GR": "30", "CY": "357", "PT": "351", "SE": "46", "NO": "47", "DK": "45",
	"FI": "358", "PL": "48", "AU": "61", "NZ": "64", "IN": "91", "ZA": "27",
	"BR": "55", "MX": "52",
}

// Phone canonicalizes a phone number. International numbers become
// "+<digits>"; national numbers get the country's calling code when known.
// Anything with fewer than 7 digits is dropped.
func Phone(raw, countryCode string) string {
	s := phoneLabel.ReplaceAllString(Clean(raw), "")
	s = strings.TrimSpace(s)
	international := strings.HasPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 7 {
		return ""
	}

	switch {
	case international:
		return "+" + digits
	case strings.HasPrefix(digits, "00"):
		return "+" + digits[2:]
	}

	code, ok := dialCodes[strings.ToUpper(countryCode)]
	if !ok {
		return digits
	}
	if code == "1" {
		switch {
		case len(digits) == 11 && digits[0] == '1':
			return "+" + digits
		case len(digits) == 10:
			return "+1" + digits
		}
		return digits
	}
	return "+" + code + strings.TrimPrefix(digits, "0")
}

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

	placeholderEmail = []string{
		"example.com", "example.org", "domain.com", "yourdomain", "email.com",
		"sentry", "wixpress", "noreply", "no-reply",
		".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg",
	}
)

// Email lowercases and validates an address. Placeholders and asset names
// that merely look like addresses return "".
func Email(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 7 && strings.EqualFold(s[:7], "mailto:") {
		s = s[7:]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if u, err := url.PathUnescape(s); err == nil {
		s = u
	}
	s = strings.ToLower(strings.Trim(s, " .,;:<>()[]\"'"))
	if !emailPattern.MatchString(s) {
		return ""
	}
	for _, p := range placeholderEmail {
		if strings.Contains(s, p) {
			return ""
		}
	}
	return s
}

// WebsiteURL unwraps directory redirect links, adds a missing scheme and drops
// the fragment. Values that do not look like a web address return "".
func WebsiteURL(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	if u, err := url.Parse(s); err == nil && strings.HasSuffix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			s = q
		}
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !strings.Contains(u.Host, ".") {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// ListingURL drops query and fragment so the same place always has one key
func ListingURL(s string) string {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Key folds case and collapses whitespace so names compare loosely
func Key(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(Clean(s)), " "))
}
