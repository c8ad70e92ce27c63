package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Chunk is a bounded substring of a source document, the unit of embedding
// and retrieval. Start/End are rune offsets into the extracted text; when
// Overlap > 0 a chunk's Start falls inside the previous chunk's span.
type Chunk struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Overlap    int    `json:"overlap"`
	TokenCount int    `json:"token_count"`
}

// VectorRecord is the persisted unit: chunk text plus flattened metadata
// under a deterministic id, so re-adding a document overwrites rather than
// duplicates.
type VectorRecord struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// RecordID builds the stable `{stem}_chunk_{index}` identifier.
func RecordID(stem string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", stem, index)
}

const missingMetadataMarker = "N/A"

// FlattenMetadata converts a DocumentMetadata plus chunk-local fields into
// the string-valued map the vector store persists. Lists are joined with
// ", " and absent scalars become the literal "N/A" marker.
func FlattenMetadata(meta DocumentMetadata, sourceFile string, chunkIndex, totalChunks int) map[string]string {
	return map[string]string{
		"expert_name":        orMissing(meta.ExpertName),
		"document_type":      orMissing(string(meta.DocumentType)),
		"document_date":      orMissing(meta.DocumentDate),
		"case_name":          orMissing(meta.CaseName),
		"key_findings":       joinOrMissing(meta.KeyFindings),
		"expert_credentials": joinOrMissing(meta.ExpertCredentials),
		"source_file":        sourceFile,
		"chunk_index":        strconv.Itoa(chunkIndex),
		"total_chunks":       strconv.Itoa(totalChunks),
	}
}

func orMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return missingMetadataMarker
	}
	return v
}

func joinOrMissing(values []string) string {
	if len(values) == 0 {
		return missingMetadataMarker
	}
	return strings.Join(values, ", ")
}
