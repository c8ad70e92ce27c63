package domain

// SearchFilter restricts vector search to records whose flattened metadata
// matches every key/value pair exactly. An empty map means no filter.
type SearchFilter struct {
	Equals map[string]string
}

func (f SearchFilter) Empty() bool { return len(f.Equals) == 0 }

// SearchResult is one ranked hit. Score is a similarity where higher means
// more relevant; stores reporting distances convert via 1 - distance.
type SearchResult struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}
