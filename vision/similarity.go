package vision

import "math"

// EmbeddingSize is the fixed length of identity descriptors
const EmbeddingSize = 512

// NormalizeEmbedding scales an embedding to unit L2 norm. A zero vector is
// returned unchanged.
func NormalizeEmbedding(embedding []float32) []float32 {
	if len(embedding) == 0 {
		return embedding
	}

	var norm float32
	for _, v := range embedding {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm == 0 {
		return embedding
	}

	normalized := make([]float32, len(embedding))
	for i, v := range embedding {
		normalized[i] = v / norm
	}
	return normalized
}

// CosineSimilarity computes the similarity of two unit-norm embeddings as
// their dot product, clipped to [0,1]. Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}

// AverageEmbeddings computes the renormalized arithmetic mean of several
// embeddings from the same subject. Returns nil when the input is empty or
// lengths disagree.
func AverageEmbeddings(embeddings [][]float32) []float32 {
	if len(embeddings) == 0 {
		return nil
	}

	size := len(embeddings[0])
	sum := make([]float32, size)
	for _, emb := range embeddings {
		if len(emb) != size {
			return nil
		}
		for i, v := range emb {
			sum[i] += v
		}
	}

	n := float32(len(embeddings))
	for i := range sum {
		sum[i] /= n
	}
	return NormalizeEmbedding(sum)
}
