package cache

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const previewRunes = 200

// \x{00A0} covers &nbsp; left behind by entity decoding
var whitespaceRegex = regexp.MustCompile(`[\s\x{00A0}]+`)

// CleanSnippet prepares a raw 150-character content slice for display as a
// search result snippet: structured-metadata rows are blanked, tag
// fragments truncated at either slice boundary are trimmed, remaining
// markup is stripped.
func CleanSnippet(raw string) string {
	if looksStructured(raw) {
		return ""
	}
	return stripTags(trimTruncatedTags(raw))
}

// Preview derives the stored content_preview: markup stripped, truncated
// to 200 characters.
func Preview(content string) string {
	text := stripTags(content)
	runes := []rune(text)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return text
}

// looksStructured reports whether content is a structured-metadata payload
// rather than prose. Some messenger rows store editor state as JSON; those
// must not surface as snippets. This is a shape check on JSON delimiters
// and the known "cp"/"ru" metadata keys, not a parser.
func looksStructured(s string) bool {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return strings.Contains(trimmed, `":`) ||
		strings.Contains(trimmed, `"cp":`) ||
		strings.Contains(trimmed, `"ru":`)
}

// trimTruncatedTags removes tag fragments cut off by slicing: a trailing
// "<div sty" and a leading `color:red;">` remnant.
func trimTruncatedTags(s string) string {
	if last := strings.LastIndex(s, "<"); last >= 0 && !strings.Contains(s[last:], ">") {
		s = s[:last]
	}
	if first := strings.Index(s, ">"); first >= 0 && !strings.Contains(s[:first], "<") {
		s = s[first+1:]
	}
	return s
}

// stripTags extracts the text content of an HTML fragment. <br> variants
// become spaces so lines do not run together.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()
	doc.Find("br, p, div, li, tr").Each(func(_ int, sel *goquery.Selection) {
		sel.PrependHtml(" ")
	})

	text := whitespaceRegex.ReplaceAllString(doc.Text(), " ")
	return strings.TrimSpace(text)
}
