// Package preprocess implements the pure text-processing core of the
// embedding pipeline: cleaning, chunking and quality gating. Everything in
// this package is synchronous and deterministic; no function here performs
// I/O or returns an error. A stage that cannot apply is a no-op.
package preprocess

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Cleaning stage names, reported in CleanResult.AppliedStages when the stage
// actually altered the text. Raw removed fragments are never logged.
const (
	StageHTML       = "html"
	StageNoise      = "noise"
	StageMarkdown   = "markdown"
	StageURLs       = "urls"
	StageEmails     = "emails"
	StageUnicode    = "unicode"
	StageWhitespace = "whitespace"
	StageCustom     = "custom"
)

// EmailPlaceholder replaces redacted email addresses so that redaction is
// visible in the cleaned text instead of silently dropping characters.
const EmailPlaceholder = "[email]"

// CleanResult is the output of Clean: the cleaned text plus the names of the
// stages that changed it, in execution order.
type CleanResult struct {
	Text          string
	AppliedStages []string
}

var (
	urlPattern   = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"]+|\bwww\.[^\s<>"]+`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Markdown syntax, removed while keeping the visible text.
	mdImagePattern      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLinkPattern       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdCodeFencePattern  = regexp.MustCompile("(?m)^```[^\n]*$")
	mdInlineCodePattern = regexp.MustCompile("`([^`]*)`")
	mdBoldPattern       = regexp.MustCompile(`\*{1,3}([^*\n]+)\*{1,3}`)
	mdUnderlinePattern  = regexp.MustCompile(`(^|\s)_{1,3}([^_\n]+)_{1,3}`)
	mdHeadingPattern    = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	mdBlockquotePattern = regexp.MustCompile(`(?m)^>[ \t]?`)
	mdListPattern       = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+\.)[ \t]+`)
	mdHRulePattern      = regexp.MustCompile(`(?m)^[ \t]*(?:-{3,}|\*{3,}|_{3,})[ \t]*$`)

	spaceRunPattern  = regexp.MustCompile(`[ \t]+`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
	lineSpacePattern = regexp.MustCompile(`(?m)[ \t]+$`)
)

// Cleaner applies the configured cleaning stages in a fixed order. The zero
// value is not useful; construct it with NewCleaner so custom patterns are
// compiled once.
type Cleaner struct {
	cfg    CleanerConfig
	custom []*regexp.Regexp
	noise  []*regexp.Regexp
}

// NewCleaner compiles the cleaner for cfg. Unparseable custom patterns are
// skipped rather than reported; a pattern that does not compile simply never
// matches.
func NewCleaner(cfg CleanerConfig) *Cleaner {
	c := &Cleaner{cfg: cfg, noise: noisePatterns}

	for _, p := range cfg.CustomPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}

		c.custom = append(c.custom, re)
	}

	return c
}

// Clean runs the enabled stages over raw. Order is fixed and matters: HTML
// stripping first so later regex stages see plain text, whitespace
// normalization last among built-ins, caller patterns after that.
func (c *Cleaner) Clean(raw string) CleanResult {
	result := CleanResult{Text: raw}

	apply := func(stage string, fn func(string) string) {
		out := fn(result.Text)
		if out != result.Text {
			result.AppliedStages = append(result.AppliedStages, stage)
			result.Text = out
		}
	}

	if c.cfg.RemoveHTML {
		apply(StageHTML, c.stripHTML)
	}

	if c.cfg.RemoveNoise {
		apply(StageNoise, c.removeNoise)
	}

	if c.cfg.RemoveMarkdown {
		apply(StageMarkdown, c.removeMarkdown)
	}

	if c.cfg.RemoveURLs {
		apply(StageURLs, func(s string) string { return urlPattern.ReplaceAllString(s, "") })
	}

	if c.cfg.RemoveEmails {
		apply(StageEmails, func(s string) string { return emailPattern.ReplaceAllString(s, EmailPlaceholder) })
	}

	if c.cfg.NormalizeUnicode {
		apply(StageUnicode, normalizeUnicode)
	}

	if c.cfg.NormalizeWhitespace {
		apply(StageWhitespace, normalizeWhitespace)
	}

	if len(c.custom) > 0 {
		apply(StageCustom, func(s string) string {
			for _, re := range c.custom {
				s = re.ReplaceAllString(s, "")
			}

			return s
		})
	}

	return result
}

// stripHTML drops markup and script/style content, decodes entities and
// keeps the visible text. Block-level closing tags become line breaks so
// paragraph structure survives for the chunker; headings become Markdown
// heading lines when PreserveHeadings is set.
func (c *Cleaner) stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var sb strings.Builder

	tokenizer := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		token := tokenizer.Token()

		switch tt {
		case html.StartTagToken:
			if isSkippedTag(token.Data) {
				skipDepth++
			}

			if skipDepth == 0 && c.cfg.PreserveHeadings {
				if level := headingLevel(token.Data); level > 0 {
					sb.WriteString("\n" + strings.Repeat("#", level) + " ")
				}
			}
		case html.EndTagToken:
			if isSkippedTag(token.Data) && skipDepth > 0 {
				skipDepth--
				continue
			}

			if skipDepth == 0 && isBlockTag(token.Data) {
				sb.WriteString("\n\n")
			}
		case html.SelfClosingTagToken:
			if skipDepth == 0 && token.Data == "br" {
				sb.WriteString("\n")
			}
		case html.TextToken:
			if skipDepth == 0 {
				sb.WriteString(token.Data)
			}
		}
	}

	return sb.String()
}

func isSkippedTag(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript" || tag == "iframe"
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "tr", "table", "ul", "ol",
		"blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6", "figure", "header", "footer":
		return true
	}

	return false
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}

	return 0
}

func (c *Cleaner) removeNoise(s string) string {
	for _, re := range c.noise {
		s = re.ReplaceAllString(s, "")
	}

	return s
}

func (c *Cleaner) removeMarkdown(s string) string {
	s = mdImagePattern.ReplaceAllString(s, "$1")
	s = mdLinkPattern.ReplaceAllString(s, "$1")
	s = mdCodeFencePattern.ReplaceAllString(s, "")
	s = mdInlineCodePattern.ReplaceAllString(s, "$1")
	s = mdBoldPattern.ReplaceAllString(s, "$1")
	s = mdUnderlinePattern.ReplaceAllString(s, "$1$2")
	s = mdBlockquotePattern.ReplaceAllString(s, "")
	s = mdListPattern.ReplaceAllString(s, "")
	s = mdHRulePattern.ReplaceAllString(s, "")

	if !c.cfg.PreserveHeadings {
		s = mdHeadingPattern.ReplaceAllString(s, "")
	}

	return s
}

// normalizeUnicode applies NFC composition plus full-width to half-width
// folding, so that full-width digits, Latin letters and punctuation common
// in CJK content compare equal to their ASCII forms.
func normalizeUnicode(s string) string {
	return width.Fold.String(norm.NFC.String(s))
}

// normalizeWhitespace collapses runs of spaces, trims trailing line space
// and limits blank-line runs to a single blank line.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = lineSpacePattern.ReplaceAllString(s, "")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
