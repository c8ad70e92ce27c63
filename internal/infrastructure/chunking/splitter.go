package chunking

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

// Boundary separators in priority order. The splitter prefers to cut a chunk
// at the highest-priority separator found inside the window; an empty string
// means a hard cut at the window edge.
var separators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 150
)

// Splitter cuts extracted text into overlapping chunks that respect natural
// boundaries. Offsets are rune-based so multibyte documents chunk the same
// as ASCII ones.
type Splitter struct {
	chunkSize int
	overlap   int
	encoder   *tiktoken.Tiktoken
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	// Token counts are advisory; when the encoding cannot be loaded the
	// splitter falls back to the chars/4 estimate.
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoder = nil
	}
	return &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
		encoder:   encoder,
	}
}

func (s *Splitter) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []domain.Chunk
	start := 0
	prevEnd := 0
	index := 0

	for start < n {
		end := start + s.chunkSize
		if end >= n {
			end = n
		} else {
			end = s.cutPoint(runes, start, end)
		}

		segment := strings.TrimSpace(string(runes[start:end]))
		if segment != "" {
			overlap := 0
			if index > 0 && prevEnd > start {
				overlap = prevEnd - start
			}
			chunks = append(chunks, domain.Chunk{
				Index:      index,
				Text:       segment,
				Start:      start,
				End:        end,
				Overlap:    overlap,
				TokenCount: s.countTokens(segment),
			})
			index++
		}

		if end >= n {
			break
		}
		prevEnd = end
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// cutPoint finds where to end a chunk that starts at start and may extend to
// limit. It scans the window for the last occurrence of each separator in
// priority order and cuts just after it, so sentences and paragraphs stay
// whole whenever one fits in the window.
func (s *Splitter) cutPoint(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	for _, sep := range separators {
		if sep == "" {
			break
		}
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		cut := start + len([]rune(window[:idx])) + len([]rune(sep))
		if cut > start && cut <= limit {
			return cut
		}
	}
	return limit
}

func (s *Splitter) countTokens(text string) int {
	if s.encoder != nil {
		return len(s.encoder.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}
