package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/extractor/docx"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/extractor/pdf"
	"github.com/lexicon-legal/lexicon/internal/infrastructure/extractor/plaintext"
)

// Dispatcher routes a file to the extractor matching its media type.
type Dispatcher struct {
	pdf   *pdf.Extractor
	docx  *docx.Extractor
	plain *plaintext.Extractor
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		pdf:   pdf.NewExtractor(logger),
		docx:  docx.NewExtractor(),
		plain: plaintext.NewExtractor(),
	}
}

func (d *Dispatcher) Extract(ctx context.Context, path string, mediaType domain.MediaType) (string, error) {
	switch mediaType {
	case domain.MediaTypePDF:
		return d.pdf.Extract(ctx, path)
	case domain.MediaTypeDOCX:
		return d.docx.Extract(ctx, path)
	case domain.MediaTypeWordPerfect:
		// WordPerfect has no pure-Go reader. The placeholder keeps the file
		// visible in search results so a human can convert it by hand.
		return fmt.Sprintf("[WordPerfect file: %s - conversion not implemented]", filepath.Base(path)), nil
	default:
		return d.plain.Extract(ctx, path)
	}
}
