package owner

import (
	"fmt"
	"strings"
)

const systemPrompt = `You research small businesses. Answer with the owner's name only, formatted as "Name (Title)". ` +
	`Separate multiple people with ";". If you cannot identify a real person, answer NOT_FOUND. Never answer with slogans, page headings or job adverts.`

// Query identifies the business whose owner is wanted
type Query struct {
	BusinessName string
	Location     string // Street address or area
	Website      string
	Category     string
}

func (q Query) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\n", q.BusinessName)
	if q.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", q.Category)
	}
	if q.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", q.Location)
	}
	if q.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", q.Website)
	}
	return b.String()
}

// conservativePrompt asks only for an owner the model can attribute to a source
func conservativePrompt(q Query) string {
	return q.describe() + `
Who is the owner or founder of this business? Only answer if a public source names them.
Reply with "FOUND: Name (Title)" or NOT_FOUND.`
}

// aggressivePrompt widens the search to directors, managers and registry filings
func aggressivePrompt(q Query) string {
	return q.describe() + `
Search harder: check company registries, local news, social media profiles, review replies signed by staff,
and LinkedIn. Owner, founder, managing director, proprietor, principal or general manager all count.
Reply with "FOUND: Name (Title)" for each person, separated by ";", or NOT_FOUND if nobody can be named.`
}
