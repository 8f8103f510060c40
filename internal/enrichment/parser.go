package enrichment

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ajharbinger/dealscope/internal/models"
)

const maxKeywords = 20

// socialHosts maps a link host to the network it belongs to
var socialHosts = map[string]string{
	"linkedin.com":  "linkedin",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"facebook.com":  "facebook",
	"github.com":    "github",
	"youtube.com":   "youtube",
	"instagram.com": "instagram",
}

// NormalizeDomain reduces user input such as "https://www.Acme.com/about"
// to a bare host ("acme.com"). A port is kept.
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("domain is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid domain: %w", err)
	}
	host := strings.ToLower(u.Host)
	if !strings.Contains(u.Hostname(), ".") {
		return "", fmt.Errorf("invalid domain %q", raw)
	}
	return strings.TrimPrefix(host, "www."), nil
}

// ParseHomepage fills the page-derived fields of meta from doc
func ParseHomepage(doc *goquery.Document, meta *models.CompanyMetadata) {
	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if meta.Title == "" {
		meta.Title = metaContent(doc, "meta[property='og:title']")
	}

	meta.Description = metaContent(doc, "meta[name='description']")
	if meta.Description == "" {
		meta.Description = metaContent(doc, "meta[property='og:description']")
	}

	meta.Keywords = parseKeywords(metaContent(doc, "meta[name='keywords']"))
	meta.SocialLinks = socialLinks(doc)
	meta.Emails = emails(doc)
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func parseKeywords(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// socialLinks keeps the first profile link found per network
func socialLinks(doc *goquery.Document) map[string]string {
	links := make(map[string]string)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || u.Host == "" {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		network, ok := socialHosts[host]
		if !ok || strings.Trim(u.Path, "/") == "" {
			return
		}
		if _, exists := links[network]; !exists {
			links[network] = u.String()
		}
	})
	if len(links) == 0 {
		return nil
	}
	return links
}

func emails(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var out []string
	doc.Find("a[href^='mailto:']").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if idx := strings.Index(addr, "?"); idx >= 0 {
			addr = addr[:idx]
		}
		addr = strings.ToLower(strings.TrimSpace(addr))
		if !strings.Contains(addr, "@") || seen[addr] {
			return
		}
		seen[addr] = true
		out = append(out, addr)
	})
	sort.Strings(out)
	return out
}
