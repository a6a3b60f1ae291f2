package classifier

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/prodcrawl/internal/model"
)

// productPatterns mark a path as an individual item page.
var productPatterns = []string{"/product/", "/item/", "/p/", "/details/", "/prod/"}

// exclusionPatterns are matched anywhere in the resolved URL.
var exclusionPatterns = []string{"/about", "/contact", "/privacy", "/blog", "mailto:"}

// excludedExtensions are compared case-insensitively against the path extension.
var excludedExtensions = map[string]bool{
	".zip":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// Classifier splits the anchors of a page into product and category links.
// The zero value uses the literal prefix test for category links.
type Classifier struct {
	// StrictHost additionally requires category links to share the seed's host.
	StrictHost bool
}

// Result holds the classification of a single page.
type Result struct {
	// Products are product-candidate URLs in document order.
	Products []string

	// Categories are same-domain, non-excluded URLs in document order.
	Categories []string
}

// Classify parses the page once and returns both link sets.
func (c Classifier) Classify(htmlContent, baseURL, originalDomain string) Result {
	anchors := Anchors(htmlContent, baseURL)

	var origin *url.URL
	if c.StrictHost {
		origin, _ = url.Parse(originalDomain) //nolint:errcheck // nil origin rejects every link
	}

	products := model.NewURLSet()
	categories := model.NewURLSet()
	for _, link := range anchors {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if IsProductURL(u) {
			products.Add(link)
		}
		if c.isCategory(link, u, originalDomain, origin) {
			categories.Add(link)
		}
	}

	return Result{
		Products:   products.Values(),
		Categories: categories.Values(),
	}
}

// ProductLinks returns the product-candidate URLs of the page.
func (c Classifier) ProductLinks(htmlContent, baseURL string) []string {
	return c.Classify(htmlContent, baseURL, "").Products
}

// CategoryLinks returns the URLs of the page worth crawling further.
func (c Classifier) CategoryLinks(htmlContent, baseURL, originalDomain string) []string {
	return c.Classify(htmlContent, baseURL, originalDomain).Categories
}

// ProductLinks classifies with the default Classifier.
func ProductLinks(htmlContent, baseURL string) []string {
	return Classifier{}.ProductLinks(htmlContent, baseURL)
}

// CategoryLinks classifies with the default Classifier.
func CategoryLinks(htmlContent, baseURL, originalDomain string) []string {
	return Classifier{}.CategoryLinks(htmlContent, baseURL, originalDomain)
}

// IsProductURL reports whether the URL path contains a product pattern.
func IsProductURL(u *url.URL) bool {
	p := u.EscapedPath()
	for _, pattern := range productPatterns {
		if strings.Contains(p, pattern) {
			return true
		}
	}
	return false
}

// IsExcluded reports whether a resolved URL must never be crawled.
func IsExcluded(rawURL string) bool {
	for _, pattern := range exclusionPatterns {
		if strings.Contains(rawURL, pattern) {
			return true
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	if strings.EqualFold(u.Scheme, "mailto") {
		return true
	}
	return excludedExtensions[strings.ToLower(path.Ext(u.Path))]
}

// isCategory applies the seed prefix test and the exclusion list.
func (c Classifier) isCategory(link string, u *url.URL, originalDomain string, origin *url.URL) bool {
	if originalDomain == "" || !strings.HasPrefix(link, originalDomain) {
		return false
	}
	if c.StrictHost {
		if origin == nil || !strings.EqualFold(u.Host, origin.Host) {
			return false
		}
	}
	return !IsExcluded(link)
}

// Anchors returns every anchor href of the page resolved against baseURL,
// deduplicated and in document order. Anchors without an href and hrefs
// that fail to parse are skipped individually.
func Anchors(htmlContent, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	links := model.NewURLSet()

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := getAttr(n, "href"); ok && strings.TrimSpace(href) != "" {
				if resolved, ok := resolve(base, href); ok {
					links.Add(resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links.Values()
}

// resolve turns href into an absolute URL string relative to base.
func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
