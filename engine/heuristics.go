package engine

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

var emptyRoots = []string{
	`<div id="root"></div>`,
	`<div id="app"></div>`,
	`<div id="__next"></div>`,
	`<div id="__nuxt"></div>`,
}

// NeedsBrowser reports whether an HTTP-fetched page is probably a script
// shell whose contact details only appear after JS rendering.
func NeedsBrowser(body string) bool {
	text := VisibleText(body)

	// 1. Very little visible text in <body>.
	if len(text) < 200 {
		return true
	}

	lower := strings.ToLower(body)

	// 2. Empty SPA root containers.
	for _, root := range emptyRoots {
		if strings.Contains(lower, root) {
			return true
		}
	}

	// 3. <noscript> with JS-required warnings.
	if reNoscript.MatchString(lower) {
		return true
	}

	// 4. Many <script> tags and little body text.
	return strings.Count(lower, "<script") > 10 && len(text) < 500
}

// VisibleText returns the text inside <body>, without tags and without
// <script>, <style> and <noscript> content. Entities are decoded.
func VisibleText(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(buf.String())
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				if t := strings.TrimSpace(string(tokenizer.Text())); t != "" {
					buf.WriteString(t)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
