// Package frontier runs the breadth-first, depth-bounded crawl of one domain.
//
// # Algorithm
//
// The crawl proceeds one depth level at a time. At each level the frontier
// is filtered against the visited set, the survivors are marked visited and
// then fetched in batches of at most maxConcurrency URLs. Every batch is a
// barrier: the next batch starts only after all fetches of the current one
// have finished.
//
// Each fetch task classifies its page and returns the product and category
// links as a value. The scheduler folds those values into its sets from the
// single control flow after the barrier, so the visited set, the product
// set and the next frontier are never touched by more than one goroutine.
//
// Category links found at the last level are not queued. A crawl with
// maxDepth N therefore never fetches a URL first discovered at depth N.
//
// # Example
//
// With maxDepth 2 the seed page is fetched at depth 0, the category pages it
// links to are fetched at depth 1, and the category links found there are
// discarded. Products from both levels are kept.
package frontier
