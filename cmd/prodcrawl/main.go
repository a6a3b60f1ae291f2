// Package main provides the entry point for the prodcrawl CLI.
//
// prodcrawl crawls storefronts breadth-first from a list of seed domains and
// writes the product page URLs it finds to a JSON file.
//
// Usage:
//
//	prodcrawl crawl -i domains.txt -o output.json
//	prodcrawl history https://shop.example.com
//
// See --help for all available options.
package main

func main() {
	Execute()
}
