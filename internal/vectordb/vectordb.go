package vectordb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docchat/internal/models"
)

const compress = false

// Index is a persistent nearest-neighbor index over document chunks. It is
// built once from the full chunk set and read-only during query serving;
// there is no incremental update path.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	embed      chromem.EmbeddingFunc
}

// Open loads the index persisted at dbPath, creating an empty one if the
// location does not exist yet. Callers decide between serving the loaded
// data and rebuilding via Count.
func Open(dbPath, collectionName string, embed chromem.EmbeddingFunc) (*Index, error) {
	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	c, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Index{db: db, collection: c, name: collectionName, embed: embed}, nil
}

// NewInMemory returns a non-persistent index, used by tests and dry runs.
func NewInMemory(collectionName string, embed chromem.EmbeddingFunc) (*Index, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &Index{db: db, collection: c, name: collectionName, embed: embed}, nil
}

// Count reports the number of indexed chunks.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Build replaces the whole index with embeddings for the given chunks and
// persists the result. Any previously indexed data is dropped first.
func (ix *Index) Build(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}

	if err := ix.db.DeleteCollection(ix.name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	c, err := ix.db.GetOrCreateCollection(ix.name, nil, ix.embed)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	ix.collection = c

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      uuid.NewString(),
			Content: chunk.Content,
			Metadata: map[string]string{
				"source": chunk.Source,
				"page":   strconv.Itoa(chunk.PageNumber),
				"chunk":  strconv.Itoa(chunk.ChunkID),
			},
		}
	}

	log.Info().Int("documents", len(docs)).Msg("Adding documents to vector database")
	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Retrieve embeds the query and returns up to k chunks, nearest first.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]models.Chunk, error) {
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	chunks := make([]models.Chunk, len(results))
	for i, res := range results {
		page, _ := strconv.Atoi(res.Metadata["page"])
		chunkID, _ := strconv.Atoi(res.Metadata["chunk"])
		chunks[i] = models.Chunk{
			Content:    res.Content,
			Source:     res.Metadata["source"],
			PageNumber: page,
			ChunkID:    chunkID,
		}
	}
	return chunks, nil
}
