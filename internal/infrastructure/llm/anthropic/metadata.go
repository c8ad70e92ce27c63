package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

// MetadataExtractor asks the model for one structured metadata record per
// document. Any failure short of context cancellation degrades to the
// sentinel record: a document that defeats metadata extraction still gets
// chunked and indexed.
type MetadataExtractor struct {
	generator ports.TextGenerator
	logger    *slog.Logger
}

func NewMetadataExtractor(generator ports.TextGenerator, logger *slog.Logger) *MetadataExtractor {
	return &MetadataExtractor{generator: generator, logger: logger}
}

func (m *MetadataExtractor) ExtractMetadata(ctx context.Context, textSample, fileName string) (domain.DocumentMetadata, error) {
	response, err := m.generator.Generate(ctx, buildMetadataPrompt(textSample, fileName), ports.GenerateOptions{
		MaxTokens:   1000,
		Temperature: 0,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.DocumentMetadata{}, err
		}
		m.logger.Warn("metadata extraction failed, using sentinel", "file", fileName, "error", err)
		return domain.FailedMetadata(), nil
	}

	meta, err := parseMetadataResponse(response)
	if err != nil {
		m.logger.Warn("metadata response unparseable, using sentinel", "file", fileName, "error", err)
		return domain.FailedMetadata(), nil
	}
	return meta.Normalize(), nil
}

func buildMetadataPrompt(textSample, fileName string) string {
	return `Analyze this legal document excerpt and extract metadata.

Filename: ` + fileName + `

Document excerpt:
` + textSample + `

Return ONLY a JSON object with these keys:
- expert_name: full name of the expert witness, or null if none is identified
- document_type: one of "deposition", "report", "motion", "affidavit", "other"
- document_date: the document's date in YYYY-MM-DD format, or null
- case_name: the case caption, or null
- key_findings: array of the expert's key findings or opinions (up to 5 strings)
- expert_credentials: array of the expert's stated credentials (degrees, certifications)

No markdown, no commentary, no extra keys.`
}

// parseMetadataResponse tolerates code fences and prose around the JSON
// object; models add both despite instructions.
func parseMetadataResponse(response string) (domain.DocumentMetadata, error) {
	cleaned := stripCodeFences(response)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return domain.DocumentMetadata{}, errors.New("no json object in response")
	}

	var meta domain.DocumentMetadata
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &meta); err != nil {
		return domain.DocumentMetadata{}, err
	}
	return meta, nil
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
