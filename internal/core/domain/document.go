package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type MediaType string

const (
	MediaTypePDF         MediaType = "pdf"
	MediaTypeDOCX        MediaType = "docx"
	MediaTypeText        MediaType = "text"
	MediaTypeWordPerfect MediaType = "wpd"
)

// Document is the source-file record. The raw text is transient: only derived
// chunks and extracted metadata survive processing.
type Document struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	MediaType   MediaType        `json:"media_type"`
	StoragePath string           `json:"storage_path"`
	Metadata    DocumentMetadata `json:"metadata"`
	Status      DocumentStatus   `json:"status"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// MediaTypeForFile maps a file name to the extractor branch that handles it.
// Unknown extensions are treated as plain text, matching the ingestion
// convention for .txt/.md/.log corpus files.
func MediaTypeForFile(name string) MediaType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MediaTypePDF
	case ".docx":
		return MediaTypeDOCX
	case ".wpd":
		return MediaTypeWordPerfect
	default:
		return MediaTypeText
	}
}

// FileStem derives the identifier stem used for vector record ids. Spaces and
// dots are flattened so the stem survives metadata stores that dislike either.
func FileStem(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.ReplaceAll(stem, " ", "_")
	stem = strings.ReplaceAll(stem, ".", "_")
	return stem
}
