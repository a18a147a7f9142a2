// Package scraper fetches artist tour-date pages and extracts events from them.
//
// The listing site has changed its markup several times, so extraction is
// pluggable: Microdata reads schema.org annotated articles, SpanPrefixA and
// SpanPrefixB read span-prefixed list items with two different date
// notations. A Chain tries them in a configurable order. Extraction fails
// loudly on malformed nodes instead of dropping them.
package scraper
