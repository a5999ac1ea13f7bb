package util

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

const similarWordsLimit = 3

// Ratio is the edit similarity of two strings in [0, 100]. Substitutions
// cost as much as a deletion plus an insertion.
func Ratio(a, b string) float64 {
	levenshtein := metrics.NewLevenshtein()
	levenshtein.CaseSensitive = false
	levenshtein.InsertCost = 1
	levenshtein.DeleteCost = 1
	levenshtein.ReplaceCost = 2
	return similarity(a, b, levenshtein)
}

// PartialRatio scores the best local alignment of the shorter string
// inside the longer one in [0, 100]: a name contained in another scores
// 100.
func PartialRatio(a, b string) float64 {
	swg := metrics.NewSmithWatermanGotoh()
	swg.CaseSensitive = false
	swg.GapPenalty = -0.5
	swg.Substitution = metrics.MatchMismatch{Match: 1, Mismatch: -2}
	return similarity(a, b, swg)
}

func similarity(a, b string, metric strutil.StringMetric) float64 {
	switch {
	case a == "" && b == "":
		return 100
	case a == "" || b == "":
		return 0
	}
	return 100 * min(1, max(0, strutil.Similarity(a, b, metric)))
}

// IsSimilarName reports whether name looks like any of the already picked
// names. Names are compared on their first words only, up to three.
func IsSimilarName(name string, picked []string, threshold float64) bool {
	nameWords := strings.Split(SimplifyName(name), " ")

	for _, pickedName := range picked {
		words := strings.Split(SimplifyName(pickedName), " ")
		length := min(similarWordsLimit, max(len(nameWords), len(words)))

		left := strings.Join(nameWords[:min(length, len(nameWords))], " ")
		right := strings.Join(words[:min(length, len(words))], " ")
		if PartialRatio(left, right) > threshold {
			return true
		}
	}
	return false
}
