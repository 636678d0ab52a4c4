// Package extract pulls contact signals out of business website HTML.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/normalize"
	"github.com/rotisserie/eris"
)

// Page is what one website page yielded
type Page struct {
	Signal model.WebsiteSignal

	// Links are same-host pages likely to carry contact or team details,
	// in document order
	Links []string
}

// WebsiteExtractor extracts contact signals from HTML
type WebsiteExtractor struct {
	contactKeywords []string
}

// NewWebsiteExtractor creates a new website extractor
func NewWebsiteExtractor() *WebsiteExtractor {
	return &WebsiteExtractor{
		contactKeywords: []string{
			"contact", "kontakt", "about", "über uns", "ueber-uns",
			"team", "impressum", "imprint", "our-story", "who-we-are",
		},
	}
}

var textEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Extract parses htmlContent fetched from pageURL
func (e *WebsiteExtractor) Extract(htmlContent string, pageURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return Page{}, eris.Wrap(err, "extract: parse html")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return Page{}, eris.Wrapf(err, "extract: bad page url %q", pageURL)
	}

	var page Page
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)

		switch {
		case strings.HasPrefix(lower, "mailto:"):
			if page.Signal.Email == "" {
				page.Signal.Email = normalize.Email(href)
			}
			return
		case strings.Contains(lower, "instagram.com"):
			if page.Signal.InstagramURL == "" {
				page.Signal.InstagramURL = socialURL(href)
			}
			return
		case strings.Contains(lower, "facebook.com"):
			if page.Signal.FacebookURL == "" {
				page.Signal.FacebookURL = socialURL(href)
			}
			return
		}

		resolved := resolveURL(base, href)
		if resolved == nil || resolved.Host != base.Host {
			return
		}
		if !e.isContactLink(resolved.Path, a.Text()) {
			return
		}
		resolved.Fragment = ""
		link := resolved.String()
		if link == pageURL || seen[link] {
			return
		}
		seen[link] = true
		page.Links = append(page.Links, link)
	})

	lines := visibleLines(doc)

	if page.Signal.Email == "" {
		page.Signal.Email = firstTextEmail(lines)
	}
	page.Signal.OwnerName = InferOwner(lines)

	return page, nil
}

func (e *WebsiteExtractor) isContactLink(path, text string) bool {
	haystack := strings.ToLower(path + " " + strings.TrimSpace(text))
	for _, kw := range e.contactKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func firstTextEmail(lines []string) string {
	for _, line := range lines {
		for _, m := range textEmail.FindAllString(line, -1) {
			if email := normalize.Email(m); email != "" {
				return email
			}
		}
	}
	return ""
}

// socialURL keeps the profile path and drops tracking parameters
func socialURL(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme == "" || u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// resolveURL resolves a relative URL against a base URL. Only http(s)
// results are returned.
func resolveURL(base *url.URL, href string) *url.URL {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	return resolved
}
