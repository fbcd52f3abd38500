package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	name  string
	out   PDFText
	err   error
	calls int
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(context.Context, []byte) (PDFText, error) {
	f.calls++
	return f.out, f.err
}

func newTestExtractor(primary, secondary *fakeExtractor) *Extractor {
	e := &Extractor{}
	if primary != nil {
		e.Primary = primary
	}
	if secondary != nil {
		e.Secondary = secondary
	}
	return e
}

func TestPDFText_PrimaryClean(t *testing.T) {
	primary := &fakeExtractor{name: "p", out: PDFText{Pages: []string{" one ", "", "two"}}}
	secondary := &fakeExtractor{name: "s", out: PDFText{Pages: []string{"other"}}}

	text, err := newTestExtractor(primary, secondary).PDFText(context.Background(), "a.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
	assert.Equal(t, 0, secondary.calls)
}

func TestPDFText_Fallback(t *testing.T) {
	tests := []struct {
		name      string
		primary   *fakeExtractor
		secondary *fakeExtractor
		want      string
		wantErr   bool
	}{
		{
			name:      "primary empty uses secondary",
			primary:   &fakeExtractor{out: PDFText{Pages: []string{"", "  "}}},
			secondary: &fakeExtractor{out: PDFText{Pages: []string{"第一页", "第二页"}}},
			want:      "第一页\n第二页",
		},
		{
			name:      "primary warning prefers secondary",
			primary:   &fakeExtractor{out: PDFText{Pages: []string{"garbled"}, Warnings: []string{"page 2: unsupported encoding"}}},
			secondary: &fakeExtractor{out: PDFText{Pages: []string{"clean"}}},
			want:      "clean",
		},
		{
			name:      "primary error uses secondary",
			primary:   &fakeExtractor{err: errors.New("malformed xref")},
			secondary: &fakeExtractor{out: PDFText{Pages: []string{"recovered"}}},
			want:      "recovered",
		},
		{
			name:      "secondary unavailable keeps primary text",
			primary:   &fakeExtractor{out: PDFText{Pages: []string{"partial"}, Warnings: []string{"page 1: bad font"}}},
			secondary: &fakeExtractor{err: errors.New("pdftotext not found in PATH")},
			want:      "partial",
		},
		{
			name:      "both empty",
			primary:   &fakeExtractor{out: PDFText{}},
			secondary: &fakeExtractor{out: PDFText{Pages: []string{"\f"}}},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := newTestExtractor(tt.primary, tt.secondary).PDFText(context.Background(), "a.pdf", nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, 1, tt.secondary.calls)
		})
	}
}

func TestFromBytes_Text(t *testing.T) {
	e := newTestExtractor(nil, nil)
	data := []byte("\xef\xbb\xbf  The capital of France is Paris.\xff \n")

	content, err := e.FromBytes(context.Background(), "../../etc/notes.txt", data, ModeNative)
	require.NoError(t, err)
	require.Len(t, content.Texts, 1)
	assert.Equal(t, "notes.txt", content.Texts[0].Filename)
	assert.Equal(t, "The capital of France is Paris.\uFFFD", content.Texts[0].Text)
	assert.Equal(t, []string{"notes.txt"}, content.Files)
	assert.Equal(t, "# Source: notes.txt\nThe capital of France is Paris.\uFFFD", content.CombinedText())
}

func TestFromBytes_Errors(t *testing.T) {
	e := newTestExtractor(&fakeExtractor{}, &fakeExtractor{})
	tests := []struct {
		name     string
		filename string
		data     []byte
		mode     Mode
		msg      string
	}{
		{"bad name", "dir/", []byte("x"), ModeNative, "Invalid file name."},
		{"unsupported", "slides.pptx", []byte("x"), ModeNative, "Only .txt or .pdf files are supported."},
		{"empty text", "a.TXT", []byte(" \n\t"), ModeNative, "Uploaded text file is empty."},
		{"textless pdf", "a.pdf", []byte("%PDF"), ModeText, "Uploaded PDF does not contain extractable text."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.FromBytes(context.Background(), tt.filename, tt.data, tt.mode)
			var ce *ContentError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.msg, ce.Error())
		})
	}
}

func TestFromBytes_PDFModes(t *testing.T) {
	primary := &fakeExtractor{out: PDFText{Pages: []string{"lecture text"}}}
	e := newTestExtractor(primary, nil)
	data := []byte("%PDF-1.7 fake")

	native, err := e.FromBytes(context.Background(), "Lecture.PDF", data, ModeNative)
	require.NoError(t, err)
	assert.Empty(t, native.Texts)
	require.Len(t, native.Payloads, 1)
	assert.Equal(t, "Lecture.PDF", native.Payloads[0].Filename)
	assert.Equal(t, PDFMIMEType, native.Payloads[0].MIMEType)
	assert.Equal(t, data, native.Payloads[0].Data)
	assert.Equal(t, 0, primary.calls)

	text, err := e.FromBytes(context.Background(), "Lecture.PDF", data, ModeText)
	require.NoError(t, err)
	assert.Empty(t, text.Payloads)
	require.Len(t, text.Texts, 1)
	assert.Equal(t, "lecture text", text.Texts[0].Text)
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.txt":     "beta notes",
		"a.txt":     "alpha notes",
		"c.pdf":     "%PDF-1.4",
		"empty.txt": "   ",
		"skip.md":   "not supported",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	primary := &fakeExtractor{out: PDFText{Pages: []string{"pdf text"}}}
	e := newTestExtractor(primary, nil)

	native, err := e.FromDir(context.Background(), dir, ModeNative)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.pdf"}, native.Files)
	require.Len(t, native.Texts, 2)
	assert.Equal(t, "a.txt", native.Texts[0].Filename)
	require.Len(t, native.Payloads, 1)

	text, err := e.FromDir(context.Background(), dir, ModeText)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.pdf"}, text.Files)
	assert.Empty(t, text.Payloads)
	assert.Equal(t, "pdf text", text.Texts[2].Text)
}

func TestFromDir_Failures(t *testing.T) {
	e := newTestExtractor(&fakeExtractor{}, nil)

	_, err := e.FromDir(context.Background(), filepath.Join(t.TempDir(), "missing"), ModeNative)
	var ce *ContentError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Error(), "Notes directory not found")

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"readme.md": "x", "blank.txt": "\n", "scan.pdf": "%PDF"})
	_, err = e.FromDir(context.Background(), dir, ModeText)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "No readable .txt or .pdf files found in notes directory.", ce.Error())
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "notes.txt", want: "notes.txt"},
		{in: "/tmp/x/notes.txt", want: "notes.txt"},
		{in: `C:\Users\me\笔记.pdf`, want: "笔记.pdf"},
		{in: "  spaced.txt  ", want: "spaced.txt"},
		{in: "nu\x00ll.txt", want: "null.txt"},
		{in: "", wantErr: true},
		{in: "a/b/", wantErr: true},
		{in: "..", wantErr: true},
		{in: "\x00", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFilename(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SanitizeFilename(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "héllo", DecodeText([]byte("\xef\xbb\xbfhéllo")))
	assert.Equal(t, "a\uFFFDb", DecodeText([]byte("a\xffb")))
	assert.Equal(t, "", DecodeText(nil))
}

func TestPDFTextJoin(t *testing.T) {
	assert.Equal(t, "one\ntwo", PDFText{Pages: []string{"one\n", "\f", " two "}}.Text())
}

func TestLedongthucExtractor_RejectsGarbage(t *testing.T) {
	_, err := LedongthucExtractor{}.Extract(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)
}
