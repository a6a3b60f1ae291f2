package classifier

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"testing"
)

// TestProductLinks tests product URL classification.
func TestProductLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		html    string
		baseURL string
		want    []string
	}{
		{
			name:    "relative product link is resolved",
			html:    `<a href="/product/42">Shoe</a>`,
			baseURL: "http://shop.test",
			want:    []string{"http://shop.test/product/42"},
		},
		{
			name: "every product pattern matches",
			html: `<a href="/product/1"></a><a href="/item/2"></a><a href="/p/3"></a>
				<a href="/details/4"></a><a href="/prod/5"></a>`,
			baseURL: "http://shop.test/",
			want: []string{
				"http://shop.test/product/1",
				"http://shop.test/item/2",
				"http://shop.test/p/3",
				"http://shop.test/details/4",
				"http://shop.test/prod/5",
			},
		},
		{
			name:    "patterns are case-sensitive",
			html:    `<a href="/Product/1"></a><a href="/ITEM/2"></a>`,
			baseURL: "http://shop.test",
			want:    []string{},
		},
		{
			name:    "pattern needs both slashes",
			html:    `<a href="/products"></a><a href="/shop/p"></a><a href="/prodigy/x"></a>`,
			baseURL: "http://shop.test",
			want:    []string{},
		},
		{
			name:    "duplicates are removed",
			html:    `<a href="/p/1"></a><a href="http://shop.test/p/1"></a><a href="p/1"></a>`,
			baseURL: "http://shop.test/",
			want:    []string{"http://shop.test/p/1"},
		},
		{
			name:    "off-domain product links are kept",
			html:    `<a href="https://cdn.other.test/item/9"></a>`,
			baseURL: "http://shop.test",
			want:    []string{"https://cdn.other.test/item/9"},
		},
		{
			name:    "protocol-relative link takes base scheme",
			html:    `<a href="//m.shop.test/product/7"></a>`,
			baseURL: "https://shop.test/home",
			want:    []string{"https://m.shop.test/product/7"},
		},
		{
			name:    "relative path resolves against base directory",
			html:    `<a href="../item/3">x</a>`,
			baseURL: "http://shop.test/category/shoes/",
			want:    []string{"http://shop.test/category/item/3"},
		},
		{
			name:    "anchor without href is skipped",
			html:    `<a name="top">x</a><a href="">y</a><a href="/p/1">z</a>`,
			baseURL: "http://shop.test",
			want:    []string{"http://shop.test/p/1"},
		},
		{
			name:    "malformed href skips only that link",
			html:    `<a href="http://[::1">bad</a><a href="/p/%zz">bad</a><a href="/item/ok">good</a>`,
			baseURL: "http://shop.test",
			want:    []string{"http://shop.test/item/ok"},
		},
		{
			name:    "query string does not make a product",
			html:    `<a href="/search?next=/p/1"></a>`,
			baseURL: "http://shop.test",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ProductLinks(tt.html, tt.baseURL)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCategoryLinks tests crawl candidate classification.
func TestCategoryLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		html   string
		base   string
		domain string
		want   []string
	}{
		{
			name:   "same-domain link is kept",
			html:   `<a href="/category/shoes">Shoes</a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{"http://shop.test/category/shoes"},
		},
		{
			name:   "other domain is dropped",
			html:   `<a href="http://other.test/category/shoes">x</a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{},
		},
		{
			name: "exclusion patterns are dropped",
			html: `<a href="/about">a</a><a href="/contact-us">b</a><a href="/privacy">c</a>
				<a href="/blog/post">d</a><a href="mailto:sales@shop.test">e</a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{},
		},
		{
			name: "excluded extensions are case-insensitive",
			html: `<a href="/files/a.zip"></a><a href="/files/b.PDF"></a><a href="/files/c.doc"></a>
				<a href="/files/d.DocX"></a><a href="/files/e.html"></a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{"http://shop.test/files/e.html"},
		},
		{
			name:   "exclusion wins over product pattern",
			html:   `<a href="/blog/product/1"></a><a href="/product/manual.pdf"></a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{},
		},
		{
			name:   "product pages are also category candidates",
			html:   `<a href="/product/1"></a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{"http://shop.test/product/1"},
		},
		{
			name:   "literal prefix accepts lookalike host",
			html:   `<a href="http://shop.test.evil.com/deals"></a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{"http://shop.test.evil.com/deals"},
		},
		{
			name:   "fragment-only link resolves to the page",
			html:   `<a href="#reviews"></a>`,
			base:   "http://shop.test/category/shoes",
			domain: "http://shop.test",
			want:   []string{"http://shop.test/category/shoes#reviews"},
		},
		{
			name:   "scheme mismatch fails the prefix test",
			html:   `<a href="https://shop.test/sale"></a>`,
			base:   "http://shop.test",
			domain: "http://shop.test",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CategoryLinks(tt.html, tt.base, tt.domain)
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestClassifierStrictHost tests the opt-in host comparison.
func TestClassifierStrictHost(t *testing.T) {
	t.Parallel()

	page := `<a href="http://shop.test.evil.com/deals"></a><a href="http://SHOP.test/sale"></a>
		<a href="/category/hats"></a>`

	c := Classifier{StrictHost: true}
	got := c.CategoryLinks(page, "http://shop.test", "http://shop.test")

	// "http://SHOP.test/sale" fails the literal prefix test before the host check.
	want := []string{"http://shop.test/category/hats"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestClassifyScenario tests the single-page seed scenario.
func TestClassifyScenario(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<a href="/product/42">Widget</a>
		<a href="/about">About</a>
		<a href="/category/shoes">Shoes</a>
	</body></html>`

	res := Classifier{}.Classify(page, "http://shop.test", "http://shop.test")

	if !slices.Equal(res.Products, []string{"http://shop.test/product/42"}) {
		t.Errorf("unexpected products: %v", res.Products)
	}
	want := []string{"http://shop.test/product/42", "http://shop.test/category/shoes"}
	if !slices.Equal(res.Categories, want) {
		t.Errorf("unexpected categories: %v", res.Categories)
	}
}

// TestClassifyProperties checks soundness, completeness and idempotence over
// a grid of generated pages.
func TestClassifyProperties(t *testing.T) {
	t.Parallel()

	segments := []string{"product", "item", "p", "details", "prod", "about", "blog", "category", "Product"}
	suffixes := []string{"1", "x.pdf", "y.DOCX", "list"}
	hosts := []string{"", "http://shop.test", "http://shop.test.evil.com", "https://other.test"}

	var b strings.Builder
	var hrefs []string
	for _, h := range hosts {
		for _, s := range segments {
			for _, suf := range suffixes {
				href := fmt.Sprintf("%s/%s/%s", h, s, suf)
				hrefs = append(hrefs, href)
				fmt.Fprintf(&b, `<a href=%q>x</a>`, href)
			}
		}
	}
	page := b.String()
	const base = "http://shop.test/start"
	const domain = "http://shop.test"

	c := Classifier{}
	first := c.Classify(page, base, domain)
	second := c.Classify(page, base, domain)
	if !slices.Equal(first.Products, second.Products) || !slices.Equal(first.Categories, second.Categories) {
		t.Fatal("classification is not idempotent")
	}

	products := make(map[string]bool)
	for _, p := range first.Products {
		u, err := url.Parse(p)
		if err != nil {
			t.Fatalf("product %q does not parse: %v", p, err)
		}
		if !IsProductURL(u) {
			t.Errorf("product %q matches no pattern", p)
		}
		products[p] = true
	}

	for _, c := range first.Categories {
		if !strings.HasPrefix(c, domain) {
			t.Errorf("category %q is outside %s", c, domain)
		}
		if IsExcluded(c) {
			t.Errorf("category %q matches an exclusion", c)
		}
	}

	baseURL, _ := url.Parse(base)
	for _, href := range hrefs {
		ref, _ := url.Parse(href)
		resolved := baseURL.ResolveReference(ref)
		if IsProductURL(resolved) && !products[resolved.String()] {
			t.Errorf("expected %q in products", resolved.String())
		}
	}
}

// TestAnchors tests raw anchor extraction.
func TestAnchors(t *testing.T) {
	t.Parallel()

	t.Run("invalid base yields nothing", func(t *testing.T) {
		t.Parallel()

		if got := Anchors(`<a href="/p/1"></a>`, "http://[::1"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("whitespace around href is trimmed", func(t *testing.T) {
		t.Parallel()

		got := Anchors("<a href=\"  /p/1\n\">x</a>", "http://shop.test")
		if !slices.Equal(got, []string{"http://shop.test/p/1"}) {
			t.Errorf("unexpected anchors: %v", got)
		}
	})

	t.Run("non-anchor elements are ignored", func(t *testing.T) {
		t.Parallel()

		got := Anchors(`<link href="/p/1"><img src="/item/2"><area href="/prod/3">`, "http://shop.test")
		if len(got) != 0 {
			t.Errorf("expected no anchors, got %v", got)
		}
	})
}
