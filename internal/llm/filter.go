package llm

import "regexp"

// upstream brand mentions: "chatgpt", "chat gpt", "chat-gpt", any casing
var brandPattern = regexp.MustCompile(`(?i)chat[ _-]?gpt`)

// BrandFilter rewrites upstream brand mentions to our own brand. It runs
// per chunk, so a mention split across two chunks is not rewritten. Known
// limitation; a sliding buffer would delay every chunk to cover it.
type BrandFilter struct {
	replacement string
}

func NewBrandFilter(brand string) *BrandFilter {
	return &BrandFilter{replacement: brand}
}

func (f *BrandFilter) Rewrite(chunk string) string {
	return brandPattern.ReplaceAllString(chunk, f.replacement)
}
