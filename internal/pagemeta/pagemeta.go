// Package pagemeta extracts a page title and recognized meta tags from
// HTML with regular expressions. Extraction is best-effort: no match
// yields empty fields, never an error. It deliberately does not use a
// full HTML parser; the inputs are arbitrary local dev servers and a
// lossy scan is acceptable.
package pagemeta

import (
	"regexp"
	"strings"

	"github.com/TWeb79/appscout/internal/domain"
)

var (
	titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	// Meta tags come with name/content in either attribute order.
	metaNameContentRe = regexp.MustCompile(`(?is)<meta\s+[^>]*?name\s*=\s*["']([^"']+)["'][^>]*?content\s*=\s*["']([^"']*)["'][^>]*>`)
	metaContentNameRe = regexp.MustCompile(`(?is)<meta\s+[^>]*?content\s*=\s*["']([^"']*)["'][^>]*?name\s*=\s*["']([^"']+)["'][^>]*>`)
	propContentRe     = regexp.MustCompile(`(?is)<meta\s+[^>]*?property\s*=\s*["']og:([^"']+)["'][^>]*?content\s*=\s*["']([^"']*)["'][^>]*>`)

	wsRe = regexp.MustCompile(`\s+`)
)

// Title returns the contents of the first title tag, whitespace-collapsed,
// or "" when the document has none.
func Title(html string) string {
	m := titleRe.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return clean(m[1])
}

// Meta scans for recognized meta-tag patterns and returns whatever was
// found. Returns nil when nothing was recognized.
func Meta(html string) *domain.PageMeta {
	tags := map[string]string{}

	for _, m := range metaNameContentRe.FindAllStringSubmatch(html, -1) {
		put(tags, m[1], m[2])
	}
	for _, m := range metaContentNameRe.FindAllStringSubmatch(html, -1) {
		put(tags, m[2], m[1])
	}
	for _, m := range propContentRe.FindAllStringSubmatch(html, -1) {
		put(tags, "og:"+m[1], m[2])
	}

	meta := &domain.PageMeta{}
	if v := first(tags, "application-name", "og:site_name", "og:title"); v != "" {
		meta.AppName = v
	}
	if v := first(tags, "description", "og:description"); v != "" {
		meta.Description = v
	}
	if v := first(tags, "category"); v != "" {
		meta.Category = v
	}

	if *meta == (domain.PageMeta{}) {
		return nil
	}
	return meta
}

// put keeps the first occurrence of a tag; later duplicates lose.
func put(tags map[string]string, name, content string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, seen := tags[name]; seen {
		return
	}
	tags[name] = clean(content)
}

func first(tags map[string]string, names ...string) string {
	for _, n := range names {
		if v := tags[n]; v != "" {
			return v
		}
	}
	return ""
}

func clean(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
