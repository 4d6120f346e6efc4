package nlp

import (
	"hash/fnv"
	"math"
	"strings"
)

// Default embedding dimensionality.
const defaultDimension = 256

// Embedder produces fixed-dimension vectors by hashing character trigrams.
// It is a deterministic stand-in for a sentence-transformer service: texts
// sharing surface forms land near each other in the hashed space.
type Embedder struct {
	dim int
}

// EmbedderOption applies a configuration option to the Embedder.
type EmbedderOption func(*Embedder)

// WithDimension sets the embedding vector length.
func WithDimension(dim int) EmbedderOption {
	return func(e *Embedder) {
		if dim > 0 {
			e.dim = dim
		}
	}
}

// NewEmbedder creates an embedder with configuration options.
func NewEmbedder(opts ...EmbedderOption) *Embedder {
	e := &Embedder{dim: defaultDimension}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed returns the L2-normalized hashed-trigram vector of text.
func (e *Embedder) Embed(text string) []float64 {
	vec := make([]float64, e.dim)

	padded := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	runes := []rune(padded)
	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		vec[int(h.Sum32())%e.dim]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
