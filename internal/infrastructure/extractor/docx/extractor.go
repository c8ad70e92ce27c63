package docx

import (
	"context"
	"strings"

	"code.sajari.com/docconv"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// Extractor converts Word documents to plain text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "convert docx", err)
	}
	return strings.TrimSpace(res.Body), nil
}
