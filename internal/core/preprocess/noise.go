package preprocess

import "regexp"

// noisePatterns matches site boilerplate that adds no semantic value to an
// embedding: navigation crumbs, copyright lines, ad markers, social CTAs.
// The list is fixed; callers add site-specific rules via CustomPatterns.
var noisePatterns = []*regexp.Regexp{
	// Copyright and rights lines.
	regexp.MustCompile(`(?im)^.*(?:©|\(c\)|copyright)\s+\d{4}.*$`),
	regexp.MustCompile(`(?im)^.*all rights reserved.*$`),
	// Navigation boilerplate.
	regexp.MustCompile(`(?im)^\s*(?:home|top)\s*[>›»]\s*\S.*$`),
	regexp.MustCompile(`(?im)^\s*(?:read more|continue reading|back to top|skip to content)\s*$`),
	regexp.MustCompile(`(?im)^\s*(?:previous|next)\s+(?:post|article|page)\s*$`),
	// Ad and promo markers.
	regexp.MustCompile(`(?im)^\s*(?:advertisement|sponsored(?: content| link)?|\[ad\]|\[pr\])\s*$`),
	regexp.MustCompile(`(?i)\[sponsored\]|\[advertisement\]`),
	// Social call-to-action lines.
	regexp.MustCompile(`(?im)^\s*(?:share(?: this)?(?: post| article)?|follow us on \w+|like us on \w+)\s*[:!]?\s*$`),
	// Cookie/consent banners that leak into scraped bodies.
	regexp.MustCompile(`(?im)^\s*(?:this (?:site|website) uses cookies).*$`),
}
