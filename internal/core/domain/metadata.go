package domain

import "strings"

type DocumentType string

const (
	DocTypeDeposition DocumentType = "deposition"
	DocTypeReport     DocumentType = "report"
	DocTypeMotion     DocumentType = "motion"
	DocTypeAffidavit  DocumentType = "affidavit"
	DocTypeOther      DocumentType = "other"
)

// ExtractionFailedSentinel marks a metadata record the extractor could not
// produce. Callers must treat it as absence, never as a real expert name.
const ExtractionFailedSentinel = "Extraction Failed"

// DocumentMetadata is the fixed-shape record extracted once per document from
// its head sample. DocumentDate is an ISO date string or empty.
type DocumentMetadata struct {
	ExpertName        string       `json:"expert_name"`
	DocumentType      DocumentType `json:"document_type"`
	DocumentDate      string       `json:"document_date,omitempty"`
	CaseName          string       `json:"case_name,omitempty"`
	KeyFindings       []string     `json:"key_findings"`
	ExpertCredentials []string     `json:"expert_credentials"`
}

// FailedMetadata is the sentinel record returned when extraction could not
// produce real data. All list fields are empty, not nil, so downstream
// serialization stays stable.
func FailedMetadata() DocumentMetadata {
	return DocumentMetadata{
		ExpertName:        ExtractionFailedSentinel,
		DocumentType:      DocTypeOther,
		KeyFindings:       []string{},
		ExpertCredentials: []string{},
	}
}

func (m DocumentMetadata) Failed() bool {
	return m.ExpertName == ExtractionFailedSentinel
}

// Normalize clamps the document type to the known enum and replaces nil lists
// with empty ones.
func (m DocumentMetadata) Normalize() DocumentMetadata {
	switch DocumentType(strings.ToLower(string(m.DocumentType))) {
	case DocTypeDeposition, DocTypeReport, DocTypeMotion, DocTypeAffidavit:
		m.DocumentType = DocumentType(strings.ToLower(string(m.DocumentType)))
	default:
		m.DocumentType = DocTypeOther
	}
	if m.KeyFindings == nil {
		m.KeyFindings = []string{}
	}
	if m.ExpertCredentials == nil {
		m.ExpertCredentials = []string{}
	}
	return m
}
