package fetch

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// paragraphSeparator joins the text of consecutive <p> elements.
const paragraphSeparator = " "

// document is what scoring needs from a parsed page.
type document struct {
	title string
	text  string
}

// parseDocument parses HTML and collects the title and paragraph text.
// html.Parse accepts malformed markup, so real-world pages rarely fail here.
func parseDocument(r io.Reader) (*document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	return &document{
		title: strings.TrimSpace(doc.Find("title").First().Text()),
		text:  paragraphText(doc.Selection),
	}, nil
}

// paragraphText returns the text of every <p> in document order. Each
// paragraph's text is kept as is, including its inner whitespace.
func paragraphText(s *goquery.Selection) string {
	paragraphs := s.Find("p").Map(func(_ int, p *goquery.Selection) string {
		return p.Text()
	})
	return strings.Join(paragraphs, paragraphSeparator)
}

// ExtractParagraphs returns the joined paragraph text of an HTML document.
// A document without <p> elements yields "".
func ExtractParagraphs(r io.Reader) (string, error) {
	doc, err := parseDocument(r)
	if err != nil {
		return "", err
	}
	return doc.text, nil
}
