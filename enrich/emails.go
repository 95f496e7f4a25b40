// Package enrich adds contact email addresses to harvested records by
// fetching each record's website.
package enrich

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// EmailSeparator joins the addresses of one row in the emails column.
const EmailSeparator = ", "

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// imageSuffixes end strings that have the shape of an address but are
// retina asset names such as "logo@2x.png".
var imageSuffixes = []string{".png", ".jpg", ".jpeg", ".gif"}

// ExtractEmails returns every address-shaped string in body, in order of
// appearance, after decoding HTML entities. Duplicates are kept.
func ExtractEmails(body string) []string {
	var out []string
	for _, m := range emailPattern.FindAllString(html.UnescapeString(body), -1) {
		if validEmail(m) {
			out = append(out, m)
		}
	}
	return out
}

func validEmail(s string) bool {
	_, domain, ok := strings.Cut(s, "@")
	if !ok || !strings.Contains(domain, ".") {
		return false
	}
	lower := strings.ToLower(s)
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return true
}

// NormalizeEmail is the comparison form of an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailSet tracks every address seen during a run, compared in normalised
// form. It only grows.
type EmailSet struct {
	seen map[string]struct{}
}

// NewEmailSet returns an empty set.
func NewEmailSet() *EmailSet {
	return &EmailSet{seen: make(map[string]struct{})}
}

// Add records email and reports whether it was new.
func (s *EmailSet) Add(email string) bool {
	n := NormalizeEmail(email)
	if n == "" {
		return false
	}
	if _, ok := s.seen[n]; ok {
		return false
	}
	s.seen[n] = struct{}{}
	return true
}

// Has reports whether email was already seen.
func (s *EmailSet) Has(email string) bool {
	_, ok := s.seen[NormalizeEmail(email)]
	return ok
}

// Len returns the number of distinct addresses.
func (s *EmailSet) Len() int {
	return len(s.seen)
}

// Unique filters emails down to those not seen before, recording them.
// The first-seen spelling of each address is the one kept.
func (s *EmailSet) Unique(emails []string) []string {
	var out []string
	for _, e := range emails {
		if s.Add(e) {
			out = append(out, e)
		}
	}
	return out
}

// SeedFromColumn adds the addresses of previously written emails cells.
// NotAvailable and empty cells are ignored.
func (s *EmailSet) SeedFromColumn(cells []string) {
	for _, cell := range cells {
		for _, e := range strings.Split(cell, EmailSeparator) {
			if e = strings.TrimSpace(e); e != "" && e != models.NotAvailable {
				s.Add(e)
			}
		}
	}
}
