package models

// Chunk is a bounded span of source text produced by splitting a document,
// together with its provenance.
type Chunk struct {
	Content    string
	Source     string
	PageNumber int
	ChunkID    int
}
