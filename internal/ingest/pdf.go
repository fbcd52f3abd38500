package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFText is the result of one extraction pass. Warnings holds per-page
// decoding problems that did not abort the whole document.
type PDFText struct {
	Pages    []string
	Warnings []string
}

// Text joins the non-empty trimmed pages with newlines.
func (t PDFText) Text() string {
	var pages []string
	for _, p := range t.Pages {
		if s := strings.TrimSpace(p); s != "" {
			pages = append(pages, s)
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n"))
}

// PDFTextExtractor pulls plain text out of a PDF document.
type PDFTextExtractor interface {
	Name() string
	Extract(ctx context.Context, data []byte) (PDFText, error)
}

// LedongthucExtractor is the in-process extractor. It reads the document
// page by page so one broken font table only costs that page.
type LedongthucExtractor struct{}

func (LedongthucExtractor) Name() string { return "ledongthuc" }

func (LedongthucExtractor) Extract(ctx context.Context, data []byte) (out PDFText, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return out, fmt.Errorf("pdf reader: %w", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		out.Pages = append(out.Pages, text)
	}
	return out, nil
}

// PdftotextExtractor shells out to poppler's pdftotext, which copes with
// CID-keyed and CJK encodings the in-process reader cannot map.
type PdftotextExtractor struct {
	// Binary defaults to "pdftotext" on PATH.
	Binary  string
	Timeout time.Duration
}

func (PdftotextExtractor) Name() string { return "pdftotext" }

func (e PdftotextExtractor) Extract(ctx context.Context, data []byte) (PDFText, error) {
	bin := e.Binary
	if bin == "" {
		bin = "pdftotext"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return PDFText{}, fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "studyquiz_pdftotext_*")
	if err != nil {
		return PDFText{}, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, "in.pdf")
	outPath := filepath.Join(tmpDir, "out.txt")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return PDFText{}, fmt.Errorf("write temp pdf: %w", err)
	}

	cmd := exec.CommandContext(callCtx, bin, "-enc", "UTF-8", "-q", inPath, outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return PDFText{}, fmt.Errorf("pdftotext: %w; stderr=%s", err, s)
		}
		return PDFText{}, fmt.Errorf("pdftotext: %w", err)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		return PDFText{}, fmt.Errorf("read pdftotext output: %w", err)
	}
	// pdftotext ends every page with a form feed.
	return PDFText{Pages: strings.Split(string(b), "\f")}, nil
}
