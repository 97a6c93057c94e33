// File: internal/extract/links.go
package extract

import "regexp"

// Share links arrive embedded in prose copied out of the mobile app
// ("69 xxx发布了一篇小红书笔记... http://xhslink.com/a/b1c2d3，复制本条信息...").
// The resolver pulls the first recognizable URL out of that text. Pure and
// synchronous: no network, no browser.
var (
	// Short-link host pattern, checked first. The character class ends the
	// match at whitespace, full-width punctuation or any other prose.
	shortLinkPattern = regexp.MustCompile(`https?://xhslink\.com/[A-Za-z0-9./_-]+`)
	// Canonical site-domain pattern. Stops before whitespace or a
	// full-width comma, the separator the share text uses.
	canonicalPattern = regexp.MustCompile(`https?://(?:www\.)?xiaohongshu\.com/[^\s，]+`)
)

// ResolveShareLink extracts a navigable URL from share text. It returns the
// first short-link match, then the first canonical-domain match, and finally
// the input unchanged when neither pattern applies (already a direct URL).
func ResolveShareLink(text string) string {
	if m := shortLinkPattern.FindString(text); m != "" {
		return m
	}
	if m := canonicalPattern.FindString(text); m != "" {
		return m
	}
	return text
}
