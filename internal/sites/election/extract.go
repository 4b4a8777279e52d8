package election

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// decodeJSON decodes an API payload. Some endpoints answer with the JSON
// wrapped in an HTML document, in which case the body text is decoded.
func decodeJSON(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
		if err != nil {
			return fmt.Errorf("parse html wrapper: %w", err)
		}
		trimmed = []byte(strings.TrimSpace(doc.Find("body").Text()))
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("decode json payload: %w", err)
	}
	return nil
}

func parseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// resolve joins a site-relative path onto base; absolute URLs pass through.
func resolve(base, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// collapse normalises runs of whitespace in extracted text.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
