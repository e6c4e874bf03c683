package searchdb

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements whose text is never visible.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// htmlToText extracts the text nodes of an HTML document, trimmed and joined
// with single spaces.
func htmlToText(content string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	var pieces []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way we keep what we have
			return strings.Join(pieces, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(tokenizer.Text())), " ")
			if text != "" {
				pieces = append(pieces, text)
			}
		}
	}
}
