package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhisek/studyquiz/internal/logging"
)

// Extractor ingests notes. PDF text goes through Primary first and falls
// back to Secondary when Primary finds nothing, fails, or reports page
// warnings.
type Extractor struct {
	Primary   PDFTextExtractor
	Secondary PDFTextExtractor
	log       *logging.Logger
}

// NewExtractor returns an Extractor using the in-process reader with
// pdftotext as fallback. log may be nil.
func NewExtractor(log *logging.Logger) *Extractor {
	return &Extractor{
		Primary:   LedongthucExtractor{},
		Secondary: PdftotextExtractor{},
		log:       orNop(log),
	}
}

// WithLogger returns a copy of e that logs to log.
func (e *Extractor) WithLogger(log *logging.Logger) *Extractor {
	c := *e
	c.log = orNop(log)
	return &c
}

func orNop(log *logging.Logger) *logging.Logger {
	if log == nil {
		return logging.Nop()
	}
	return log
}

var errNoPDFText = errors.New("no extractable text")

// PDFText extracts the text of a PDF, applying the fallback policy.
func (e *Extractor) PDFText(ctx context.Context, name string, data []byte) (string, error) {
	log := orNop(e.log).With("file", name)

	var text string
	if e.Primary != nil {
		res, err := e.Primary.Extract(ctx, data)
		switch {
		case err != nil:
			log.Warn("primary pdf extraction failed", "extractor", e.Primary.Name(), "error", err)
		default:
			text = res.Text()
			if text != "" && len(res.Warnings) == 0 {
				return text, nil
			}
			if len(res.Warnings) > 0 {
				log.Debug("primary pdf extraction reported warnings",
					"extractor", e.Primary.Name(), "warnings", len(res.Warnings), "first", res.Warnings[0])
			}
		}
	}

	if e.Secondary != nil {
		res, err := e.Secondary.Extract(ctx, data)
		if err != nil {
			log.Warn("fallback pdf extraction failed", "extractor", e.Secondary.Name(), "error", err)
		} else if s := res.Text(); s != "" {
			return s, nil
		}
	}

	if text == "" {
		return "", errNoPDFText
	}
	return text, nil
}

// FromBytes ingests a single uploaded file.
func (e *Extractor) FromBytes(ctx context.Context, filename string, data []byte, mode Mode) (*SourceContent, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}
	if !Supported(name) {
		return nil, &ContentError{Msg: "Only .txt or .pdf files are supported."}
	}

	content := &SourceContent{}
	switch suffix(name) {
	case ".txt":
		text := strings.TrimSpace(DecodeText(data))
		if text == "" {
			return nil, &ContentError{Msg: "Uploaded text file is empty."}
		}
		content.addText(name, text)
	case ".pdf":
		if mode == ModeNative {
			content.addPayload(name, data)
			break
		}
		text, err := e.PDFText(ctx, name, data)
		if err != nil {
			return nil, &ContentError{Msg: "Uploaded PDF does not contain extractable text.", Err: err}
		}
		content.addText(name, text)
	}
	return content, nil
}

// FromDir ingests every .txt and .pdf file directly inside dir, in name
// order. Subdirectories are ignored and empty text files are skipped.
func (e *Extractor) FromDir(ctx context.Context, dir string, mode Mode) (*SourceContent, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &ContentError{Msg: fmt.Sprintf("Notes directory not found: %s", dir), Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ContentError{Msg: fmt.Sprintf("Cannot read notes directory: %s", dir), Err: err}
	}

	content := &SourceContent{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !Supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		name, err := SanitizeFilename(entry.Name())
		if err != nil {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		switch suffix(name) {
		case ".txt":
			text := strings.TrimSpace(DecodeText(data))
			if text == "" {
				continue
			}
			content.addText(name, text)
		case ".pdf":
			if mode == ModeNative {
				content.addPayload(name, data)
				continue
			}
			text, err := e.PDFText(ctx, name, data)
			if err != nil {
				orNop(e.log).Warn("skipping pdf without extractable text", "file", name)
				continue
			}
			content.addText(name, text)
		}
	}

	if content.Empty() {
		return nil, &ContentError{Msg: "No readable .txt or .pdf files found in notes directory."}
	}
	return content, nil
}
