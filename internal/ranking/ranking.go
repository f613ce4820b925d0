// Package ranking orders feature importances for the prediction charts.
package ranking

import (
	"math"
	"sort"

	"github.com/fortuna/nhl-predictor/internal/predictor"
)

// RankedFeature is one bar of a game's feature chart and one line of its
// "Reasons" legend. DisplayIndex is the shared label of both.
type RankedFeature struct {
	DisplayIndex int     `json:"displayIndex"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	Score        float64 `json:"score"`
}

// RankedImportance is one bar of the model importance chart.
type RankedImportance struct {
	DisplayIndex int     `json:"displayIndex"`
	Label        string  `json:"label"`
	Score        float64 `json:"score"`
}

// Rank sorts a game's top features by descending importance. Equal scores
// keep their input order. Display indexes are 1..N in output order.
func Rank(descriptions predictor.Descriptions) []RankedFeature {
	ranked := make([]RankedFeature, len(descriptions))
	for i, d := range descriptions {
		ranked[i] = RankedFeature{Label: d.Label, Description: d.Description, Score: d.Importance}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return higher(ranked[i].Score, ranked[j].Score)
	})

	for i := range ranked {
		ranked[i].DisplayIndex = i + 1
	}
	return ranked
}

// RankImportances sorts a model's feature importances the same way Rank does.
func RankImportances(importances predictor.Importances) []RankedImportance {
	ranked := make([]RankedImportance, len(importances))
	for i, imp := range importances {
		ranked[i] = RankedImportance{Label: imp.Label, Score: imp.Importance}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return higher(ranked[i].Score, ranked[j].Score)
	})

	for i := range ranked {
		ranked[i].DisplayIndex = i + 1
	}
	return ranked
}

// higher orders scores descending with NaN last.
func higher(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}
