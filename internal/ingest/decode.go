package ingest

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// DecodeText decodes note bytes as UTF-8. A leading byte order mark is
// dropped and invalid sequences become U+FFFD.
func DecodeText(data []byte) string {
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(strings.TrimPrefix(string(data), "\uFEFF"), "\uFFFD")
	}
	return string(out)
}
