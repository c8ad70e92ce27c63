package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// Extractor pulls text out of PDF files page by page. Each page is prefixed
// with a `--- Page N ---` marker so page references survive chunking, and a
// single unreadable page is skipped rather than failing the document.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open pdf", err)
	}
	defer file.Close()

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := extractPage(page)
		if err != nil {
			e.logger.Warn("skipping unreadable pdf page", "file", path, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		fmt.Fprintf(&b, "--- Page %d ---\n%s\n", i, strings.TrimSpace(text))
	}
	return strings.TrimSpace(b.String()), nil
}

// extractPage isolates the library call so a panic inside a malformed page's
// content stream degrades to a per-page error.
func extractPage(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page content stream: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}
