package intent

import "strings"

// replacements is the ordered substitution table applied by Normalize. Order
// matters: longer spoken forms must come before the shorter forms they
// contain ("dot base dot eth" before "dot eth", "zero point " before
// "zero point").
var replacements = [][2]string{
	// Currency slang and common mis-transcriptions.
	{"etherium", "ethereum"},
	{"ether", "eth"},
	{"bitcoins", "bitcoin"},
	{"bit coin", "bitcoin"},

	// Action synonyms, collapsed onto "send" for downstream matching.
	{"sent", "send"},
	{"transfer", "send"},
	{"give", "send"},
	{"pay", "send"},

	// Spoken address separators.
	{"dot base dot eth", ".base.eth"},
	{"point base point eth", ".base.eth"},
	{"dot eth", ".eth"},
	{"point eth", ".eth"},

	// Spoken decimals and digits.
	{"zero point ", "0."},
	{"zero point", "0."},
	{"one", "1"},
	{"two", "2"},
	{"three", "3"},
	{"four", "4"},
	{"five", "5"},
	{"six", "6"},
	{"seven", "7"},
	{"eight", "8"},
	{"nine", "9"},
	{"ten", "10"},
}

// Normalize rewrites raw, possibly voice-transcribed text into the canonical
// lower-case form the extractor patterns expect. Substitutions are plain
// sequential string replacement, applied in table order, and the result is
// stable under repeated normalization.
func Normalize(raw string) string {
	normalized := strings.ToLower(raw)
	for _, r := range replacements {
		normalized = strings.ReplaceAll(normalized, r[0], r[1])
	}
	return normalized
}
