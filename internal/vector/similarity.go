package vector

import "github.com/hyperjump/notelink/pkg/utils"

// Normalize returns a unit-length copy of v. A zero vector is returned unnormalized
// (as a zero copy), so its similarity to everything is 0.
func Normalize(v []float32) []float32 {
	out := append([]float32(nil), v...)
	utils.NormalizeL2(out)
	return out
}

// Similarity is the inner product of two vectors; for unit vectors it equals cosine similarity.
// Vectors of different length, or empty vectors, score 0.
func Similarity(a, b []float32) float64 {
	return InnerProduct(a, b)
}

// InnerProduct returns the inner product of two vectors accumulated in float64.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
