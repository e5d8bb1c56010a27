package services

import (
	"pdf-search-service/internal/faults"
	"pdf-search-service/models"
)

// Chunker splits document text into overlapping fixed-size segments. It is a
// pure function of (text, size, overlap): the same input always yields the
// same chunk sequence.
type Chunker struct {
	size    int // max chunk length in characters (runes)
	overlap int // characters shared between consecutive chunks
}

// NewChunker validates the chunking parameters. overlap >= size would make
// zero progress per chunk, size <= 0 no progress at all.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, faults.New(faults.KindConfig, "", "chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, faults.New(faults.KindConfig, "", "overlap must be in [0, chunk size), got %d with size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into chunks where chunk i starts at i*(size-overlap) and
// is at most size long; the last chunk is truncated to the remaining text.
// Empty input yields no chunks. Offsets are in runes so multi-byte text never
// splits mid-character.
func (c *Chunker) Chunk(documentID, text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := c.size - c.overlap
	var chunks []models.Chunk
	for start := 0; start < len(runes); start += stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		segment := string(runes[start:end])
		chunks = append(chunks, models.Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       segment,
			CharCount:  end - start,
		})
	}
	return chunks
}

// Size and Overlap expose the validated parameters.
func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }
