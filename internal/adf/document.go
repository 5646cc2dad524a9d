// Package adf flattens Atlassian Document Format values to plain text.
package adf

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Node kinds understood by the extractor
const (
	KindDoc       = "doc"
	KindParagraph = "paragraph"
	KindText      = "text"
)

// Document is the root node of a rich-document value
type Document struct {
	Type    string  `json:"type"`
	Version int     `json:"version,omitempty"`
	Content []Block `json:"content"`
}

// Block is a top-level node of a document, e.g. a paragraph
type Block struct {
	Type    string   `json:"type"`
	Content []Inline `json:"content"`
}

// Inline is a leaf node inside a block, e.g. a text run
type Inline struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Parse decodes raw as a document. ok is false when raw is not an object tagged "doc".
func Parse(raw json.RawMessage) (doc *Document, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var d Document
	if err := json.Unmarshal(trimmed, &d); err != nil {
		// Objects whose content does not match the node shape are treated as opaque
		return nil, false
	}
	if d.Type != KindDoc {
		return nil, false
	}
	return &d, true
}

// PlainText joins the text runs of every paragraph with single spaces
func (d *Document) PlainText() string {
	if d == nil {
		return ""
	}

	var parts []string
	for _, block := range d.Content {
		if block.Type != KindParagraph {
			continue
		}
		for _, inline := range block.Content {
			if inline.Type == KindText {
				parts = append(parts, inline.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Text flattens any JSON value. Documents become their plain text; other
// values are returned in their textual form (strings unquoted, null as "").
func Text(raw json.RawMessage) string {
	if doc, ok := Parse(raw); ok {
		return doc.PlainText()
	}
	return Stringify(raw)
}

// Stringify returns the textual form of a JSON value
func Stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

// FromText wraps plain text in a single-paragraph document, as required by
// v3 write endpoints. Empty text yields an empty document.
func FromText(text string) Document {
	doc := Document{Type: KindDoc, Version: 1, Content: []Block{}}
	if strings.TrimSpace(text) == "" {
		return doc
	}
	doc.Content = append(doc.Content, Block{
		Type:    KindParagraph,
		Content: []Inline{{Type: KindText, Text: text}},
	})
	return doc
}
