// Package owner resolves business owner names through a serialized AI queue
// and validates whatever the model says before it reaches a record.
package owner

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rejection reasons
const (
	ReasonNotFound   = "Not Found"
	ReasonSlogan     = "Detected Slogan/Header"
	ReasonBadFormat  = "Bad Format"
	ownerSuffix      = " (Owner)"
	guessedSuffix    = " (Owner?)"
	longAnswerLength = 50
)

// Verdict is the sanitizer's decision on one model answer
type Verdict struct {
	Valid  bool
	Name   string // Set when Valid
	Reason string // Set when not Valid
}

func valid(name string) Verdict    { return Verdict{Valid: true, Name: name} }
func invalid(reason string) Verdict { return Verdict{Reason: reason} }

var (
	foundMarker = regexp.MustCompile(`(?i)^\s*found\s*:\s*`)
	emphasis    = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")

	// "<1-4 capitalized words> is/was/has been the|identified as ..."
	declarative = regexp.MustCompile(`\b([A-Z][\p{L}'.\-]*(?:\s+[A-Z][\p{L}'.\-]*){0,3})\s+(?:is|was|has been)\s+(?:the|identified as)\b`)

	parenthesizedTitle = regexp.MustCompile(`\(.+\)`)

	notFoundPhrases = []string{
		"not_found", "not found",
		"unable to find", "could not find", "couldn't find", "cannot find", "can't find",
	}

	headerPrefixes = []string{
		"welcome", "about us", "contact", "menu", "home", "our team",
		"meet the", "i am the", "with our", "senior /",
	}
)

// Sanitize validates a raw model answer. Steps run in order and the first
// failure wins: strip markers, collapse a declarative sentence, reject
// not-found answers, reject headers and slogans, then keep only parts that
// look like "Name (Title)" or a bare 2-4 word name.
func Sanitize(raw string) Verdict {
	text := strings.TrimSpace(emphasis.Replace(raw))
	text = foundMarker.ReplaceAllString(text, "")

	if !strings.Contains(text, ";") &&
		(utf8.RuneCountInString(text) > longAnswerLength || !parenthesizedTitle.MatchString(text)) {
		if m := declarative.FindStringSubmatch(text); m != nil {
			text = m[1] + ownerSuffix
		}
	}

	lower := strings.ToLower(text)
	if utf8.RuneCountInString(text) < 3 {
		return invalid(ReasonNotFound)
	}
	for _, p := range notFoundPhrases {
		if strings.Contains(lower, p) {
			return invalid(ReasonNotFound)
		}
	}

	for _, p := range headerPrefixes {
		if strings.HasPrefix(lower, p) {
			return invalid(ReasonSlogan)
		}
	}

	var kept []string
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(foundMarker.ReplaceAllString(part, ""))
		if part == "" {
			continue
		}
		if parenthesizedTitle.MatchString(part) {
			kept = append(kept, part)
			continue
		}
		if n := len(strings.Fields(part)); n >= 2 && n <= 4 {
			kept = append(kept, part+guessedSuffix)
		}
	}
	if len(kept) == 0 {
		return invalid(ReasonBadFormat)
	}
	return valid(strings.Join(kept, "; "))
}
