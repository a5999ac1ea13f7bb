package util

// NormalizeWeights drops entries with a non-positive weight and divides the
// rest by their total. A zero total is treated as one, so an all-zero input
// yields an empty map rather than NaNs.
func NormalizeWeights[K comparable](weights map[K]float64) map[K]float64 {
	total := 0.0
	for _, weight := range weights {
		if weight > 0 {
			total += weight
		}
	}
	if total == 0 {
		total = 1
	}

	normalized := make(map[K]float64, len(weights))
	for key, weight := range weights {
		if weight > 0 {
			normalized[key] = weight / total
		}
	}
	return normalized
}

// SumWeights returns the sum of the weights
func SumWeights(weights []float64) float64 {
	total := 0.0
	for _, weight := range weights {
		total += weight
	}
	return total
}
