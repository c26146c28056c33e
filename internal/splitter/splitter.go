package splitter

import (
	"path/filepath"

	"github.com/tmc/langchaingo/textsplitter"

	"leximini/internal/models"
	"leximini/internal/parser"
)

// Splitter breaks extracted text units into overlapping chunks using
// recursive character splitting, preferring paragraph, then sentence, then
// word boundaries. Splitting is deterministic for identical input and
// parameters.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// separators ordered from coarsest to finest break point.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// New creates a splitter with the given target chunk size and overlap,
// both in characters.
func New(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(separators),
		),
	}
}

// SplitText splits raw text into chunk strings.
func (s *Splitter) SplitText(text string) ([]string, error) {
	return s.inner.SplitText(text)
}

// SplitUnits splits every unit of one source file into chunks, tagging each
// chunk with the basename of the originating file (never the full path) and
// a sequential, 1-based chunk ID.
func (s *Splitter) SplitUnits(sourcePath string, units []parser.Unit) ([]models.Chunk, error) {
	base := filepath.Base(sourcePath)
	var chunks []models.Chunk
	nextID := 1
	for _, unit := range units {
		parts, err := s.inner.SplitText(unit.Text)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			chunks = append(chunks, models.Chunk{
				Content:        part,
				SourceFilename: base,
				PageNumber:     unit.PageNumber,
				ChunkID:        nextID,
			})
			nextID++
		}
	}
	return chunks, nil
}
