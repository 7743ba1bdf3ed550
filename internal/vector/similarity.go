// Package vector provides cosine similarity and flat-scan search over
// packed embedding collections.
package vector

import "math"

// normEpsilon is added to both norms before division so zero vectors score
// ~0 against anything instead of raising.
const normEpsilon = 1e-10

// CosineSimilarity returns (a·b) / ((‖a‖+ε)(‖b‖+ε)). Vectors of unequal
// length score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / ((math.Sqrt(na) + normEpsilon) * (math.Sqrt(nb) + normEpsilon))
}

// CosineScores scores query against every candidate row.
func CosineScores(query []float32, candidates [][]float32) []float64 {
	var qn float64
	for _, x := range query {
		qn += float64(x) * float64(x)
	}
	qnorm := math.Sqrt(qn) + normEpsilon

	scores := make([]float64, len(candidates))
	for i, v := range candidates {
		if len(v) != len(query) {
			continue
		}
		var dot, vn float64
		for j := range v {
			x, y := float64(query[j]), float64(v[j])
			dot += x * y
			vn += y * y
		}
		scores[i] = dot / (qnorm * (math.Sqrt(vn) + normEpsilon))
	}
	return scores
}
