package enrichment

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/dealscope/internal/models"
)

const acmeHomepage = `<!doctype html>
<html>
<head>
  <title> Acme Analytics | Revenue intelligence </title>
  <meta name="description" content="Revenue analytics for B2B SaaS teams.">
  <meta name="keywords" content="SaaS, analytics, , Revenue, saas">
  <meta property="og:description" content="ignored when description exists">
</head>
<body>
  <a href="https://www.linkedin.com/company/acme">LinkedIn</a>
  <a href="https://linkedin.com/company/acme-careers">Careers</a>
  <a href="https://x.com/acme">X</a>
  <a href="https://github.com/">GitHub home</a>
  <a href="/about">About</a>
  <a href="mailto:Sales@Acme.com?subject=hi">Sales</a>
  <a href="mailto:sales@acme.com">Sales again</a>
  <a href="mailto:hello@acme.com">Hello</a>
</body>
</html>`

func parse(t *testing.T, html string) models.CompanyMetadata {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	var meta models.CompanyMetadata
	ParseHomepage(doc, &meta)
	return meta
}

func TestParseHomepage(t *testing.T) {
	meta := parse(t, acmeHomepage)

	assert.Equal(t, "Acme Analytics | Revenue intelligence", meta.Title)
	assert.Equal(t, "Revenue analytics for B2B SaaS teams.", meta.Description)
	assert.Equal(t, []string{"saas", "analytics", "revenue"}, meta.Keywords)
	assert.Equal(t, map[string]string{
		"linkedin": "https://www.linkedin.com/company/acme",
		"twitter":  "https://x.com/acme",
	}, meta.SocialLinks)
	assert.Equal(t, []string{"hello@acme.com", "sales@acme.com"}, meta.Emails)
}

func TestParseHomepage_Fallbacks(t *testing.T) {
	meta := parse(t, `<html><head>
		<meta property="og:title" content="Beta Inc">
		<meta property="og:description" content="Payments for marketplaces">
	</head><body></body></html>`)

	assert.Equal(t, "Beta Inc", meta.Title)
	assert.Equal(t, "Payments for marketplaces", meta.Description)
	assert.Nil(t, meta.Keywords)
	assert.Nil(t, meta.SocialLinks)
	assert.Nil(t, meta.Emails)
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"acme.com", "acme.com", false},
		{"  https://www.Acme.com/about?x=1 ", "acme.com", false},
		{"http://beta.io:8080", "beta.io:8080", false},
		{"127.0.0.1:4567", "127.0.0.1:4567", false},
		{"", "", true},
		{"localhost", "", true},
		{"not a domain", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDomain(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
