package preprocess

import (
	"math"
	"unicode"
)

// Token estimation weights. CJK scripts pack roughly one token per glyph
// and a half in common embedding tokenizers, while Latin text averages four
// characters per token. The estimate is character-based; no language
// detection is involved.
const (
	cjkTokensPerChar   = 1.5
	otherTokensPerChar = 0.25
)

// EstimateTokens returns a deterministic token-count estimate for s.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}

	var cjk, other int

	for _, r := range s {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}

	return int(math.Ceil(float64(cjk)*cjkTokensPerChar + float64(other)*otherTokensPerChar))
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r) ||
		(r >= 0x3000 && r <= 0x303f) // CJK symbols and punctuation
}
