package model

// RawListingDetail is the directory-listing data scraped from one place page
type RawListingDetail struct {
	BusinessName    string `json:"business_name"`
	ScrapedCategory string `json:"scraped_category,omitempty"`
	StreetAddress   string `json:"street_address,omitempty"`
	Website         string `json:"website,omitempty"`
	Phone           string `json:"phone,omitempty"`
	MapsURL         string `json:"maps_url"` // Canonical listing URL, also the record key
}

// WebsiteSignal is what a business's own website revealed. Every field may be empty.
type WebsiteSignal struct {
	Email        string `json:"email,omitempty"`
	InstagramURL string `json:"instagram_url,omitempty"`
	FacebookURL  string `json:"facebook_url,omitempty"`
	OwnerName    string `json:"owner_name,omitempty"` // "Name (Title)"
}

// Merge fills empty fields from other. Existing values always win.
func (w WebsiteSignal) Merge(other WebsiteSignal) WebsiteSignal {
	if w.Email == "" {
		w.Email = other.Email
	}
	if w.InstagramURL == "" {
		w.InstagramURL = other.InstagramURL
	}
	if w.FacebookURL == "" {
		w.FacebookURL = other.FacebookURL
	}
	if w.OwnerName == "" {
		w.OwnerName = other.OwnerName
	}
	return w
}

// Complete reports whether nothing more is worth looking for
func (w WebsiteSignal) Complete() bool {
	return w.Email != "" && w.OwnerName != "" && w.InstagramURL != "" && w.FacebookURL != ""
}

// OwnerSource records where an owner name came from
type OwnerSource string

const (
	OwnerSourceNone       OwnerSource = "None"         // AI was not consulted
	OwnerSourceWebsite    OwnerSource = "Website"      // Found on the business website
	OwnerSourceAISearch   OwnerSource = "AI_Search"    // First (conservative) AI attempt
	OwnerSourceAIRetry    OwnerSource = "AI_Retry"     // Second (aggressive) AI attempt
	OwnerSourceAINotFound OwnerSource = "AI_Not_Found" // Both AI attempts failed
)

// OwnerResolution is the outcome of an AI owner lookup
type OwnerResolution struct {
	OwnerName string      `json:"owner_name"`
	Source    OwnerSource `json:"source"`
}

// Found reports whether a name was resolved
func (o OwnerResolution) Found() bool {
	return o.OwnerName != ""
}

// EmailStatus is the deliverability verdict attached to a record
type EmailStatus string

const (
	EmailUnchecked     EmailStatus = ""
	EmailDeliverable   EmailStatus = "deliverable"
	EmailUndeliverable EmailStatus = "undeliverable"
)

// Record is one enriched business. Records are keyed by MapsURL.
type Record struct {
	BusinessName  string      `json:"business_name"`
	Category      string      `json:"category"`
	StreetAddress string      `json:"street_address,omitempty"`
	Website       string      `json:"website,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	Email         string      `json:"email,omitempty"`
	EmailStatus   EmailStatus `json:"email_status,omitempty"`
	InstagramURL  string      `json:"instagram_url,omitempty"`
	FacebookURL   string      `json:"facebook_url,omitempty"`
	OwnerName     string      `json:"owner_name,omitempty"`
	OwnerSource   OwnerSource `json:"owner_source,omitempty"`
	MapsURL       string      `json:"maps_url"`
}
