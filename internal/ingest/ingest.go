package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"docchat/internal/loader"
	"docchat/internal/models"
)

// File loads a source document and splits it into overlapping chunks.
// Splitting is recursive-character: paragraph boundaries are preferred, then
// lines, then words, falling back to a hard cut. Chunk IDs restart per page.
func File(filePath string, chunkSize, chunkOverlap int) ([]models.Chunk, error) {
	pages, err := loader.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filePath, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no text content in %s", filePath)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	source := filepath.Base(filePath)
	var chunks []models.Chunk
	for _, page := range pages {
		pieces, err := splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting page %d: %w", page.Number, err)
		}
		for i, piece := range pieces {
			chunks = append(chunks, models.Chunk{
				Content:    piece,
				Source:     source,
				PageNumber: page.Number,
				ChunkID:    i + 1,
			})
		}
	}

	log.Info().Int("pages", len(pages)).Int("chunks", len(chunks)).Str("file", source).Msg("Ingested document")
	return chunks, nil
}
