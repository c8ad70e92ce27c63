package domain

// FileError records a single file that failed during a batch run.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type BatchSummary struct {
	TotalFiles            int `json:"total_files"`
	SuccessfullyProcessed int `json:"successfully_processed"`
	Failed                int `json:"failed"`
	TotalVectorsCreated   int `json:"total_vectors_created"`
}

// BatchResult is the persisted shape of a corpus run. The JSON field names
// are a compatibility contract for resumable runs: incremental ingestion
// reads a previous result to decide which paths to skip.
type BatchResult struct {
	ProcessedFiles     []string                    `json:"processed_files"`
	ExtractedVariables map[string]DocumentMetadata `json:"extracted_variables"`
	VectorIDs          []string                    `json:"vector_ids"`
	Errors             []FileError                 `json:"errors"`
	Summary            BatchSummary                `json:"summary"`
}

func NewBatchResult() *BatchResult {
	return &BatchResult{
		ProcessedFiles:     []string{},
		ExtractedVariables: map[string]DocumentMetadata{},
		VectorIDs:          []string{},
		Errors:             []FileError{},
	}
}

// ProcessedSet returns the set of already-processed paths, used to exclude
// files on resumed runs.
func (r *BatchResult) ProcessedSet() map[string]struct{} {
	seen := make(map[string]struct{}, len(r.ProcessedFiles))
	for _, p := range r.ProcessedFiles {
		seen[p] = struct{}{}
	}
	return seen
}

// Merge folds a later run into this result, keeping the summary internally
// consistent. Metadata for a re-processed file is last-write-wins, matching
// the overwrite semantics of vector record ids.
func (r *BatchResult) Merge(next *BatchResult) {
	r.ProcessedFiles = append(r.ProcessedFiles, next.ProcessedFiles...)
	r.VectorIDs = append(r.VectorIDs, next.VectorIDs...)
	r.Errors = append(r.Errors, next.Errors...)
	for name, meta := range next.ExtractedVariables {
		r.ExtractedVariables[name] = meta
	}
	r.Summary.TotalFiles += next.Summary.TotalFiles
	r.Summary.SuccessfullyProcessed += next.Summary.SuccessfullyProcessed
	r.Summary.Failed += next.Summary.Failed
	r.Summary.TotalVectorsCreated += next.Summary.TotalVectorsCreated
}
