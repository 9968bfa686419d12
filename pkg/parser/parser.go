package parser

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// bodyBlocks are the tags whose text makes up a readable message body.
const bodyBlocks = "h1,h2,h3,h4,p,li,td,pre,blockquote"

// Readable is the distilled content of a single message.
type Readable struct {
	Title string
	Text  string
}

// LoadDocument parses html into a queryable document.
func LoadDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ReadableText uses go-readability to find the main content of html and
// flattens it to text, one block per line.
func ReadableText(rawURL, html string) (Readable, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Readable{}, err
	}

	rp := readability.NewParser()
	article, err := rp.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return Readable{}, fmt.Errorf("readability: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return Readable{}, err
	}

	var lines []string
	doc.Find(bodyBlocks).Each(func(i int, s *goquery.Selection) {
		// Nested blocks are reported by their innermost element.
		if s.Find(bodyBlocks).Length() > 0 {
			return
		}
		if text := normalizeText(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		if text := normalizeText(doc.Text()); text != "" {
			lines = append(lines, text)
		}
	}

	return Readable{
		Title: normalizeText(article.Title),
		Text:  strings.Join(lines, "\n"),
	}, nil
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
