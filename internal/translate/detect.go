package translate

import "strings"

// scriptRange maps a Unicode block to a language code. Checked in order;
// the first block with a member character wins.
type scriptRange struct {
	lo, hi rune
	lang   string
}

var scriptRanges = []scriptRange{
	{0x0900, 0x097F, "hi"}, // Devanagari
	{0x0980, 0x09FF, "bn"}, // Bengali
	{0x0B80, 0x0BFF, "ta"}, // Tamil
	{0x0C00, 0x0C7F, "te"}, // Telugu
	{0x0C80, 0x0CFF, "kn"}, // Kannada
	{0x0D00, 0x0D7F, "ml"}, // Malayalam
	{0x0A80, 0x0AFF, "gu"}, // Gujarati
	{0x0A00, 0x0A7F, "pa"}, // Gurmukhi
	{0x0600, 0x06FF, "ar"}, // Arabic
	{0x4E00, 0x9FFF, "zh"}, // CJK Unified Ideographs
	{0x3040, 0x309F, "ja"}, // Hiragana
	{0x30A0, 0x30FF, "ja"}, // Katakana
	{0xAC00, 0xD7AF, "ko"}, // Hangul
	{0x0400, 0x04FF, "ru"}, // Cyrillic
}

// DetectLanguage guesses the language of text from Unicode block
// membership, defaulting to English for Latin script and empty input.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return "en"
	}
	for _, sr := range scriptRanges {
		for _, r := range text {
			if r >= sr.lo && r <= sr.hi {
				return sr.lang
			}
		}
	}
	return "en"
}
