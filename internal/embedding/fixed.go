package embedding

import "context"

// FixedEmbedder returns the same constant vector for every input. It exists
// only so the chat interface keeps working for demonstration when no real
// embedding backend is reachable; similarity search over its output is
// meaningless and callers must present it as degraded.
type FixedEmbedder struct {
	dim int
}

func NewFixedEmbedder(dim int) *FixedEmbedder {
	return &FixedEmbedder{dim: dim}
}

func (f *FixedEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return f.vector(), nil
}

func (f *FixedEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector()
	}
	return out, nil
}

func (f *FixedEmbedder) vector() []float32 {
	vec := make([]float32, f.dim)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}
