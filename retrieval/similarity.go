package retrieval

import "math"

// cosine returns the cosine similarity of a and b over their shared prefix.
// A zero vector scores 0 against anything.
func cosine(a, b []float32) float32 {
	minLen := min(len(a), len(b))

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
