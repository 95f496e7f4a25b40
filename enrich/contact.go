package enrich

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var anchorSelector = cascadia.MustCompile("a[href]")

// contactWords are matched against link text and href, best first.
var contactWords = []string{"contact", "kontakt", "impressum", "about"}

// FindContactLink returns the most likely contact page linked from a page
// on the same host. Links are ranked by contactWords order, then by their
// position in the page.
func FindContactLink(rawHTML, pageURL string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", false
	}

	best, bestRank := "", len(contactWords)
	doc.FindMatcher(anchorSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		// Skip javascript:, mailto:, tel: etc.
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if !sameSite(resolved.Hostname(), base.Hostname()) {
			return true
		}
		resolved.Fragment = ""
		if resolved.String() == base.String() {
			return true
		}

		hay := strings.ToLower(s.Text() + " " + resolved.Path)
		for rank, w := range contactWords[:bestRank] {
			if strings.Contains(hay, w) {
				best, bestRank = resolved.String(), rank
				break
			}
		}
		return bestRank > 0
	})

	return best, best != ""
}

func sameSite(a, b string) bool {
	trim := func(h string) string { return strings.TrimPrefix(strings.ToLower(h), "www.") }
	return trim(a) == trim(b)
}
