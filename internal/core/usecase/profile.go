package usecase

import (
	"strings"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

const (
	maxProfileExcerpts = 3
	excerptLength      = 500
)

// methodologyKeywords maps substrings found in retrieved chunk text to the
// canonical methodology names the research prompts use.
var methodologyKeywords = []struct {
	needle string
	name   string
}{
	{"diffusion tensor", "DTI imaging"},
	{"dti", "DTI imaging"},
	{"neuropsychological", "Neuropsychological testing"},
	{"glasgow coma", "Glasgow Coma Scale"},
	{"gcs", "Glasgow Coma Scale"},
	{"fmri", "fMRI imaging"},
	{"post-concussion symptom", "Post-Concussion Symptom Scale"},
}

// buildExpertProfile aggregates search hits into the profile the strategy
// stage reasons over. An empty hit list yields a valid, empty profile.
func buildExpertProfile(expertName string, hits []domain.SearchResult) domain.ExpertProfile {
	profile := domain.ExpertProfile{
		ExpertName:       expertName,
		DocumentsFound:   len(hits),
		DocumentTypes:    []string{},
		KeyFindings:      []string{},
		Methodologies:    []string{},
		Credentials:      []string{},
		RelevantExcerpts: []domain.Excerpt{},
	}

	seenTypes := map[string]struct{}{}
	seenMethods := map[string]struct{}{}
	seenCredentials := map[string]struct{}{}

	for i, hit := range hits {
		if docType := metadataValue(hit.Metadata, "document_type"); docType != "" {
			if _, ok := seenTypes[docType]; !ok {
				seenTypes[docType] = struct{}{}
				profile.DocumentTypes = append(profile.DocumentTypes, docType)
			}
		}
		for _, finding := range splitFlattenedList(metadataValue(hit.Metadata, "key_findings")) {
			profile.KeyFindings = append(profile.KeyFindings, finding)
		}
		for _, cred := range splitFlattenedList(metadataValue(hit.Metadata, "expert_credentials")) {
			if _, ok := seenCredentials[cred]; !ok {
				seenCredentials[cred] = struct{}{}
				profile.Credentials = append(profile.Credentials, cred)
			}
		}

		lower := strings.ToLower(hit.Text)
		for _, kw := range methodologyKeywords {
			if !strings.Contains(lower, kw.needle) {
				continue
			}
			if _, ok := seenMethods[kw.name]; !ok {
				seenMethods[kw.name] = struct{}{}
				profile.Methodologies = append(profile.Methodologies, kw.name)
			}
		}

		if i < maxProfileExcerpts {
			profile.RelevantExcerpts = append(profile.RelevantExcerpts, domain.Excerpt{
				Source: metadataValue(hit.Metadata, "source_file"),
				Text:   truncateRunes(hit.Text, excerptLength),
			})
		}
	}
	return profile
}

// metadataValue reads a flattened metadata field, treating the "N/A" marker
// as absent.
func metadataValue(metadata map[string]string, key string) string {
	v := strings.TrimSpace(metadata[key])
	if v == "N/A" {
		return ""
	}
	return v
}

func splitFlattenedList(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
