package extract

import (
	"regexp"
	"strings"
)

// ownerLine finds 2-4 capitalized words directly before a title keyword,
// e.g. "Jane Doe, Owner" or "Meet John Smith the founder".
var ownerLine = regexp.MustCompile(
	`(\p{Lu}[\p{L}'’.\-]*(?:\s+\p{Lu}[\p{L}'’.\-]*){1,5})` +
		`\s*(?:[,:|(–—-]\s*|\s+(?:is|was)\s+)?(?:(?i:the|our)\s+)?` +
		`((?i:managing|executive|general|creative)\s+)?` +
		`\b(?i:(co-founder|founder|owner|director|principal|proprietor|ceo))\b`)

var ownerTitles = map[string]string{
	"co-founder": "Co-Founder",
	"founder":    "Founder",
	"owner":      "Owner",
	"director":   "Director",
	"principal":  "Principal",
	"proprietor": "Proprietor",
	"ceo":        "CEO",
}

// genericWords never form part of a person's name
var genericWords = map[string]bool{
	"meet": true, "our": true, "the": true, "about": true, "us": true, "team": true,
	"contact": true, "welcome": true, "home": true, "store": true, "shop": true,
	"company": true, "business": true, "family": true, "staff": true, "my": true,
	"and": true, "by": true, "from": true, "with": true, "your": true, "new": true,
	"managing": true, "executive": true, "general": true, "creative": true,
	"owner": true, "founder": true, "co-founder": true, "director": true,
	"principal": true, "proprietor": true, "ceo": true, "chef": true, "head": true,
	"bakery": true, "restaurant": true, "cafe": true, "café": true, "salon": true,
	"studio": true, "ltd": true, "llc": true, "inc": true, "gmbh": true,
	"hello": true, "hi": true, "to": true, "of": true, "i'm": true, "i": true, "am": true, "is": true,
}

// InferOwner scans text lines for a name followed by an ownership title and
// returns "Name (Title)", or "" when nothing credible turns up.
func InferOwner(lines []string) string {
	for _, line := range lines {
		if len(line) > 300 {
			continue
		}
		for _, m := range ownerLine.FindAllStringSubmatch(line, -1) {
			name := candidateName(m[1])
			if name == "" {
				continue
			}
			title := ownerTitles[strings.ToLower(m[3])]
			if q := strings.TrimSpace(m[2]); q != "" {
				title = strings.ToUpper(q[:1]) + strings.ToLower(q[1:]) + " " + title
			}
			return name + " (" + title + ")"
		}
	}
	return ""
}

// candidateName trims generic words from both ends and accepts what remains
// when it is 2-4 words with none of them generic
func candidateName(span string) string {
	words := strings.Fields(span)
	for len(words) > 0 && isGeneric(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && isGeneric(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	for _, w := range words {
		if isGeneric(w) {
			return ""
		}
	}
	return strings.Join(words, " ")
}

func isGeneric(word string) bool {
	return genericWords[strings.ToLower(strings.Trim(word, ".,'’-"))]
}
