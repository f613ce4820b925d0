// Package chart builds Chart.js configurations for the prediction page and
// owns the lifecycle of the chart instances drawn from them.
package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/fortuna/nhl-predictor/internal/ranking"
)

const (
	white        = "#FFFFFF"
	winGreen     = "#328e44"
	barFill      = "rgba(238, 152, 58, 0.6)"
	barBorder    = "rgba(238, 152, 58, 1)"
	gridLine     = "rgba(255, 255, 255, 0.1)"
	doughnutSize = 120
)

// Config is a Chart.js chart definition, encoded as JSON for the browser.
type Config struct {
	Type    string         `json:"type"`
	Data    Data           `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

// Data holds the labels and datasets of a chart.
type Data struct {
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one Chart.js dataset.
type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth"`
}

// ConfidencePercent rounds a confidence score in [0, 1] to a whole percent.
func ConfidencePercent(score float64) int {
	return int(math.Round(score * 100))
}

// FeatureBar builds the per-game importance bar chart. Bars are labelled by
// display index so they line up with the "Reasons" legend.
func FeatureBar(ranked []ranking.RankedFeature) Config {
	labels := make([]string, len(ranked))
	scores := make([]float64, len(ranked))
	for i, r := range ranked {
		labels[i] = strconv.Itoa(r.DisplayIndex)
		scores[i] = r.Score
	}

	return Config{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           "Importance",
				Data:            scores,
				BackgroundColor: barFill,
				BorderColor:     barBorder,
				BorderWidth:     1,
			}},
		},
		Options: map[string]any{
			"scales": map[string]any{
				"x": map[string]any{"ticks": map[string]any{"color": white}},
				"y": map[string]any{
					"beginAtZero": true,
					"ticks":       map[string]any{"color": white},
					"title":       map[string]any{"display": true, "text": "Importance", "color": white},
				},
			},
			"plugins": map[string]any{
				"legend":  map[string]any{"display": false},
				"tooltip": map[string]any{"bodyColor": white, "titleColor": white},
			},
		},
	}
}

// Confidence builds the win-confidence doughnut for a score in [0, 1].
func Confidence(score float64) Config {
	pct := ConfidencePercent(score)
	return Config{
		Type: "doughnut",
		Data: Data{
			Datasets: []Dataset{{
				Data:            []float64{float64(pct), float64(100 - pct)},
				BackgroundColor: []string{winGreen, white},
				BorderWidth:     0,
			}},
		},
		Options: map[string]any{
			"cutout":   "85%",
			"rotation": 0,
			"plugins": map[string]any{
				"tooltip": map[string]any{"enabled": false},
				"legend":  map[string]any{"display": false},
			},
		},
	}
}

// ModelImportances builds the horizontal bar chart of a model's global
// feature importances, values rounded to three decimals.
func ModelImportances(name, version string, ranked []ranking.RankedImportance) Config {
	labels := make([]string, len(ranked))
	scores := make([]float64, len(ranked))
	for i, r := range ranked {
		labels[i] = r.Label
		scores[i] = math.Round(r.Score*1000) / 1000
	}

	axis := func(title string) map[string]any {
		return map[string]any{
			"title": map[string]any{"display": true, "text": title, "font": map[string]any{"size": 13}, "color": white},
			"ticks": map[string]any{"color": white},
			"grid":  map[string]any{"color": gridLine},
		}
	}
	y := axis("Feature")
	y["ticks"] = map[string]any{"autoSkip": false, "color": white, "font": map[string]any{"size": 10}}

	return Config{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           "Feature Importance",
				Data:            scores,
				BackgroundColor: barFill,
				BorderColor:     barBorder,
				BorderWidth:     1,
			}},
		},
		Options: map[string]any{
			"indexAxis":           "y",
			"responsive":          true,
			"maintainAspectRatio": false,
			"plugins": map[string]any{
				"legend": map[string]any{"display": false},
				"title": map[string]any{
					"display": true,
					"text":    ModelTitle(name, version),
					"font":    map[string]any{"size": 16, "family": "Arial", "weight": "bold"},
					"color":   white,
				},
			},
			"scales": map[string]any{
				"x": axis("Importance"),
				"y": y,
			},
		},
	}
}

// ModelTitle is the heading of the model importance chart.
func ModelTitle(name, version string) string {
	return fmt.Sprintf("%s (v%s) Feature Importances", name, version)
}

// ModelChartHeight sizes the model chart container by its number of bars.
func ModelChartHeight(bars int) int {
	return bars * 35
}

// DoughnutSize is the canvas edge length of the confidence doughnut.
func DoughnutSize() int {
	return doughnutSize
}
