package feed

import (
	"net/url"
	"strings"
)

// SearchBaseURL is the prefix free-text queries are compiled onto.
const SearchBaseURL = "https://www.google.com/maps/search/"

// Locators are the CSS selectors for the feed and the detail pane. They
// track the current results layout and break whenever it changes.
type Locators struct {
	Feed    string
	Card    string
	Name    string
	Address string
	Rating  string
	Reviews string

	DetailAddress string
	DetailPhone   string
	DetailWebsite string
	Back          string
}

// DefaultLocators returns the selectors for the current results layout.
func DefaultLocators() Locators {
	return Locators{
		Feed:    `div[role="feed"]`,
		Card:    `div.Nv2PK`,
		Name:    `div.qBF1Pd`,
		Address: `div.W4Efsd:last-child`,
		Rating:  `span.MW4etd`,
		Reviews: `span.UY7F9`,

		DetailAddress: `button[data-item-id="address"]`,
		DetailPhone:   `button[data-item-id^="phone:tel"]`,
		DetailWebsite: `a[data-item-id="authority"]`,
		Back:          `button[jsaction="pane.back"]`,
	}
}

// SearchURL compiles a free-text query into a map-search URL.
func SearchURL(query string) string {
	return SearchBaseURL + url.PathEscape(strings.TrimSpace(query))
}
