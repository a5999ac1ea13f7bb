package sampling

import (
	"container/heap"
	"math"
)

// Random is the source of randomness the sampling functions draw from
type Random interface {
	Float64() float64
	IntN(n int) int
}

type keyedIndex struct {
	index int
	key   float64
}

// minKeyHeap keeps the k largest keys seen so far with the smallest on top
type minKeyHeap []keyedIndex

func (h minKeyHeap) Len() int           { return len(h) }
func (h minKeyHeap) Less(i, j int) bool { return h[i].key < h[j].key }
func (h minKeyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minKeyHeap) Push(x any) { *h = append(*h, x.(keyedIndex)) }

func (h *minKeyHeap) Pop() any {
	old := *h
	item := old[len(old)-1]
	*h = old[:len(old)-1]
	return item
}

// WeightedSample draws up to k distinct indices with probability
// proportional to weights, without replacement. It uses the
// Efraimidis-Spirakis reservoir: every item gets the key u^(1/w), compared
// in log space, and the k largest keys win. Indices with a non-positive or
// non-finite weight are never drawn. The result is ordered by decreasing
// key, so WeightedSample(rng, w, 1)[0] is a single weighted draw.
func WeightedSample(rng Random, weights []float64, k int) []int {
	if k <= 0 {
		return nil
	}

	reservoir := make(minKeyHeap, 0, k)
	for i, weight := range weights {
		if !(weight > 0) || math.IsInf(weight, 1) {
			continue
		}
		u := 1 - rng.Float64()
		key := math.Log(u) / weight
		if reservoir.Len() < k {
			heap.Push(&reservoir, keyedIndex{index: i, key: key})
			continue
		}
		if key > reservoir[0].key {
			reservoir[0] = keyedIndex{index: i, key: key}
			heap.Fix(&reservoir, 0)
		}
	}

	indices := make([]int, reservoir.Len())
	for i := len(indices) - 1; i >= 0; i-- {
		indices[i] = heap.Pop(&reservoir).(keyedIndex).index
	}
	return indices
}

// WeightedChoice returns one index drawn proportionally to weights, or -1
// when no weight is positive.
func WeightedChoice(rng Random, weights []float64) int {
	total := 0.0
	for _, weight := range weights {
		if weight > 0 {
			total += weight
		}
	}
	if total == 0 || math.IsInf(total, 1) {
		return -1
	}

	target := rng.Float64() * total
	last := -1
	for i, weight := range weights {
		if weight <= 0 {
			continue
		}
		last = i
		target -= weight
		if target < 0 {
			return i
		}
	}
	return last
}
