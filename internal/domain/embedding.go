package domain

import (
	"gonum.org/v1/gonum/floats"
)

// EmbeddingDim is the fixed length of face embeddings produced by the
// extraction model (Facenet512-compatible).
const EmbeddingDim = 512

// Normalize returns an L2-normalized copy of v. Zero-norm vectors are
// returned as-is: they carry no direction and are treated as non-matchable
// by the store rather than causing a division by zero.
func Normalize(v []float64) []float64 {
	if len(v) == 0 {
		return v
	}

	norm := floats.Norm(v, 2)
	if norm == 0 {
		out := make([]float64, len(v))
		copy(out, v)
		return out
	}

	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/norm, out)
	return out
}

// CosineSimilarity returns the cosine similarity between two vectors, in
// [-1, 1]. Mismatched lengths and zero vectors yield 0 (no similarity).
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := floats.Dot(a, b) / (normA * normB)

	// Clamp against floating point drift
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}
