package plaintext

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// Extractor reads plain-text corpus files. Files that are not valid UTF-8 are
// decoded as Latin-1, the common encoding of exported legal transcripts.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read text file", err)
	}

	var text string
	if utf8.Valid(raw) {
		text = string(raw)
	} else {
		text = decodeLatin1(raw)
	}
	return strings.TrimSpace(text), nil
}

// decodeLatin1 maps each byte to the Unicode code point of the same value,
// which is exactly the ISO 8859-1 table.
func decodeLatin1(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}
