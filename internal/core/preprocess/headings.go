package preprocess

import "regexp"

var headingLinePattern = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+)$`)

// heading is a Markdown heading found in cleaned text, recorded by byte
// position so chunk heading context can be resolved without rescanning.
type heading struct {
	pos  int // byte offset of the heading line start
	text string
}

// extractHeadings scans the whole cleaned text once and returns all heading
// lines in order of appearance.
func extractHeadings(text string) []heading {
	matches := headingLinePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	headings := make([]heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, heading{
			pos:  m[0],
			text: text[m[2]:m[3]],
		})
	}

	return headings
}

// headingContextFor returns the text of the nearest heading at or before
// charStart, or "" when no heading precedes the position.
func headingContextFor(headings []heading, charStart int) string {
	context := ""

	for _, h := range headings {
		if h.pos > charStart {
			break
		}

		context = h.text
	}

	return context
}
