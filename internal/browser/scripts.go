package browser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/normalize"
	"github.com/rotisserie/eris"
)

// js renders a Go value as a JavaScript literal
func js(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func consentScript(sel model.Selectors) string {
	return fmt.Sprintf(`(() => {
  for (const s of %s) {
    const b = document.querySelector(s);
    if (b) { b.click(); return true; }
  }
  return false;
})()`, js(sel.ConsentButtons))
}

// readyScript reports "feed" for a results list, "place" when the search
// jumped straight to a single listing, or "" while neither is rendered.
func readyScript(sel model.Selectors) string {
	return fmt.Sprintf(`(() => {
  if (document.querySelector(%s)) return "feed";
  if (document.querySelector(%s)) return "place";
  return "";
})()`, js(sel.ResultsFeed), js(sel.PlaceHeading))
}

func listingLinksScript(sel model.Selectors) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(a => a.href).filter(Boolean)`, js(sel.ListingLink))
}

func scrollScript(sel model.Selectors) string {
	return fmt.Sprintf(`(() => {
  const panel = document.querySelector(%s);
  if (!panel) return false;
  panel.scrollTop = panel.scrollHeight;
  return true;
})()`, js(sel.ResultsFeed))
}

func detailScript(sel model.Selectors) string {
	return fmt.Sprintf(`(() => {
  const text = (s) => { const el = document.querySelector(s); return el ? (el.innerText || el.textContent || "").trim() : ""; };
  const attr = (s, a) => { const el = document.querySelector(s); return el ? (el.getAttribute(a) || "") : ""; };
  const phoneID = attr(%[5]s, "data-item-id").replace(/^phone:tel:/, "");
  return JSON.stringify({
    name: text(%[1]s),
    category: text(%[2]s),
    address: attr(%[3]s, "aria-label") || text(%[3]s),
    website: attr(%[4]s, "href"),
    phone: phoneID || text(%[5]s),
  });
})()`, js(sel.PlaceHeading), js(sel.Category), js(sel.Address), js(sel.Website), js(sel.Phone))
}

func textsScript(selector string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.textContent || "")`, js(selector))
}

// searchURL fills the configured template with the escaped query
func searchURL(sel model.Selectors, query, lang string) string {
	u := fmt.Sprintf(sel.SearchURL, url.PathEscape(strings.TrimSpace(query)))
	if lang != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "hl=" + url.QueryEscape(lang)
	}
	return u
}

type rawDetail struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Address  string `json:"address"`
	Website  string `json:"website"`
	Phone    string `json:"phone"`
}

// parseDetail turns the detail script's JSON into a RawListingDetail. Values
// are left raw; the enricher normalizes them.
func parseDetail(payload, listingURL string) (model.RawListingDetail, error) {
	var raw rawDetail
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return model.RawListingDetail{}, eris.Wrap(err, "browser: decode listing detail")
	}
	return model.RawListingDetail{
		BusinessName:    raw.Name,
		ScrapedCategory: raw.Category,
		StreetAddress:   raw.Address,
		Website:         raw.Website,
		Phone:           raw.Phone,
		MapsURL:         normalize.ListingURL(listingURL),
	}, nil
}
