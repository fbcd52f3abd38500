// Package ingest turns study notes on disk or in memory into the text
// fragments and document payloads a generation request is built from.
package ingest

import (
	"path/filepath"
	"strings"
)

// Mode selects how PDFs are ingested.
type Mode int

const (
	// ModeNative passes PDFs through as opaque payloads for backends that
	// read documents directly.
	ModeNative Mode = iota
	// ModeText extracts PDF text locally for text-only backends.
	ModeText
)

// PDFMIMEType is the MIME type attached to PDF payloads.
const PDFMIMEType = "application/pdf"

// Fragment is plain text taken from one source file.
type Fragment struct {
	Filename string
	Text     string
}

// Render formats the fragment the way it is presented to a model: a
// source header line followed by the text.
func (f Fragment) Render() string {
	return "# Source: " + f.Filename + "\n" + f.Text
}

// Payload is an opaque document handed to the backend as-is.
type Payload struct {
	Filename string
	MIMEType string
	Data     []byte
}

// SourceContent is everything ingested for one request. Files lists the
// contributing filenames in ingestion order.
type SourceContent struct {
	Texts    []Fragment
	Payloads []Payload
	Files    []string
}

// Empty reports whether nothing usable was ingested.
func (c *SourceContent) Empty() bool {
	for _, f := range c.Texts {
		if strings.TrimSpace(f.Text) != "" {
			return false
		}
	}
	for _, p := range c.Payloads {
		if len(p.Data) > 0 {
			return false
		}
	}
	return true
}

// RenderedTexts returns every fragment in rendered form.
func (c *SourceContent) RenderedTexts() []string {
	out := make([]string, 0, len(c.Texts))
	for _, f := range c.Texts {
		out = append(out, f.Render())
	}
	return out
}

// CombinedText joins the rendered fragments with blank lines. Payloads are
// not included.
func (c *SourceContent) CombinedText() string {
	parts := make([]string, 0, len(c.Texts))
	for _, t := range c.RenderedTexts() {
		if s := strings.TrimSpace(t); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (c *SourceContent) addText(name, text string) {
	c.Texts = append(c.Texts, Fragment{Filename: name, Text: text})
	c.Files = append(c.Files, name)
}

func (c *SourceContent) addPayload(name string, data []byte) {
	c.Payloads = append(c.Payloads, Payload{Filename: name, MIMEType: PDFMIMEType, Data: data})
	c.Files = append(c.Files, name)
}

// SanitizeFilename reduces a user or directory supplied name to its base
// name with NUL bytes removed. Both slash styles count as separators.
func SanitizeFilename(name string) (string, error) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(strings.TrimSpace(name), "\x00", "")
	if name == "" || name == "." || name == ".." {
		return "", &ContentError{Msg: "Invalid file name."}
	}
	return name, nil
}

// Supported reports whether name has a .txt or .pdf suffix, in any case.
func Supported(name string) bool {
	switch suffix(name) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

func suffix(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
