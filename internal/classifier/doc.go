// Package classifier decides which links on a page are product pages and
// which are category pages worth crawling further.
//
// Classification is purely pattern based: no page content beyond anchor
// href attributes is inspected, and no network or file I/O is performed.
//
// # Product links
//
// A resolved link is a product candidate when its path contains one of
// /product/, /item/, /p/, /details/ or /prod/ (case-sensitive).
//
// # Category links
//
// A resolved link is a crawl candidate when it starts with the seed domain
// string and matches none of the exclusions: /about, /contact, /privacy,
// /blog, mailto:, or a .zip, .pdf, .doc or .docx file.
//
// The seed check is a literal string prefix test. With the seed
// "http://shop.test" it also accepts "http://shop.test.evil.com/x". Set
// Classifier.StrictHost to additionally require the same host.
package classifier
