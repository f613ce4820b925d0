// Package render draws the prediction page from a session snapshot.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/fortuna/nhl-predictor/internal/chart"
	"github.com/fortuna/nhl-predictor/internal/predictor"
	"github.com/fortuna/nhl-predictor/internal/ranking"
	"github.com/fortuna/nhl-predictor/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// ChartView is a canvas and the Chart.js configuration to draw on it.
type ChartView struct {
	CanvasID string
	Config   template.JS
	Size     int
}

// TeamView is one side of a matchup.
type TeamView struct {
	Name         string
	Abbreviation string
	Logo         string
}

// ItemView is one prediction in the list.
type ItemView struct {
	ID         int64
	Home       TeamView
	Away       TeamView
	Open       bool
	Winner     string
	WinnerLogo string
	Confidence int
	Reasons    []ranking.RankedFeature
	Features   *ChartView
	Doughnut   *ChartView
}

// ModelView is the optional model details panel.
type ModelView struct {
	Title   string
	Seasons string
	Chart   *ChartView
	Height  int
}

// PageView is everything the page template needs.
type PageView struct {
	SessionID string
	Heading   string
	Loading   bool
	Error     string
	Empty     bool
	Items     []ItemView
	Model     *ModelView
}

// Build turns a snapshot into a PageView. Chart configs come from the
// session's live charts; reasons are ranked the same way as the chart bars so
// legend numbers and bar labels agree.
func Build(snap session.Snapshot) (PageView, error) {
	view := PageView{
		SessionID: snap.ID,
		Heading:   snap.Heading,
		Loading:   snap.Predictions.Loading(),
	}

	if msg, failed := snap.Predictions.Message(); failed {
		view.Error = msg
	}

	if predictions, ok := snap.Predictions.Value(); ok {
		view.Empty = len(predictions) == 0
		// ids are unique on the page; repeats after the first are skipped
		seen := make(map[int64]bool, len(predictions))
		for _, p := range predictions {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			item, err := buildItem(p, snap)
			if err != nil {
				return PageView{}, err
			}
			view.Items = append(view.Items, item)
		}
	}

	if model, ok := snap.Model.Value(); ok && model != nil {
		mv, err := buildModel(model, snap)
		if err != nil {
			return PageView{}, err
		}
		view.Model = mv
	}

	return view, nil
}

func buildItem(p predictor.GamePrediction, snap session.Snapshot) (ItemView, error) {
	game := p.Game
	item := ItemView{
		ID: p.ID,
		Home: TeamView{
			Name:         game.HomeTeam.Name,
			Abbreviation: game.HomeTeam.Abbreviation,
			Logo:         game.GameJSON.HomeTeam.DarkLogo,
		},
		Away: TeamView{
			Name:         game.AwayTeam.Name,
			Abbreviation: game.AwayTeam.Abbreviation,
			Logo:         game.GameJSON.AwayTeam.DarkLogo,
		},
		Open: snap.IsOpen(p.ID),
	}
	if !item.Open {
		return item, nil
	}

	item.Winner = p.Winner().Name
	item.WinnerLogo = p.WinnerLogo()
	item.Confidence = chart.ConfidencePercent(p.ConfidenceScore)
	item.Reasons = ranking.Rank(p.TopFeaturesDescriptions)

	var err error
	if item.Features, err = chartView(snap, chart.FeatureCanvasID(p.ID), 0); err != nil {
		return ItemView{}, err
	}
	if item.Doughnut, err = chartView(snap, chart.ConfidenceCanvasID(p.ID), chart.DoughnutSize()); err != nil {
		return ItemView{}, err
	}
	return item, nil
}

func buildModel(model *predictor.PredictionModel, snap session.Snapshot) (*ModelView, error) {
	seasons := "N/A"
	if len(model.TrainedSeasons) > 0 {
		seasons = strings.Join(model.TrainedSeasons, ", ")
	}

	mv := &ModelView{
		Title:   chart.ModelTitle(model.Name, model.Version),
		Seasons: seasons,
		Height:  chart.ModelChartHeight(len(model.FeatureImportances)),
	}

	var err error
	if mv.Chart, err = chartView(snap, chart.ModelCanvasID, 0); err != nil {
		return nil, err
	}
	return mv, nil
}

// chartView returns nil when no chart is live on canvasID.
func chartView(snap session.Snapshot, canvasID string, size int) (*ChartView, error) {
	cfg, ok := snap.Charts[canvasID]
	if !ok {
		return nil, nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding chart %s: %w", canvasID, err)
	}
	return &ChartView{CanvasID: canvasID, Config: template.JS(raw), Size: size}, nil
}

// Renderer executes the page templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("page").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page writes the full HTML page for snap.
func (r *Renderer) Page(w io.Writer, snap session.Snapshot) error {
	return r.execute(w, "page.html", snap)
}

// List writes only the prediction list fragment for snap.
func (r *Renderer) List(w io.Writer, snap session.Snapshot) error {
	return r.execute(w, "list", snap)
}

func (r *Renderer) execute(w io.Writer, name string, snap session.Snapshot) error {
	view, err := Build(snap)
	if err != nil {
		return err
	}

	// render fully before writing so a template error never leaves half a page
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}
