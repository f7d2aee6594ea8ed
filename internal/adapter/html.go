package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector lists elements whose boundaries separate words in rendered text.
const blockSelector = "p, br, li, div, tr, td, h1, h2, h3, h4, h5, h6"

// htmlToText converts an HTML fragment to plain text with whitespace collapsed.
// Entities are decoded; text that fails to parse is returned trimmed.
func htmlToText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}
	doc.Find(blockSelector).AfterHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}
