package models

// Chunk is a bounded span of document text, the unit of retrieval.
type Chunk struct {
	Content        string
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

// ChunkEmbedding pairs a chunk with its embedding vector.
type ChunkEmbedding struct {
	Content        string
	Embedding      []float32
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

// Message is a single conversation turn.
type Message struct {
	Role    string
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PromptResponse is the result of one answered question.
type PromptResponse struct {
	Query   string
	Source  string
	Content string
}
