package predictor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Team is the subset of the backend's team record the client renders.
type Team struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// TeamLogo carries the logo URLs from the raw NHL game payload.
type TeamLogo struct {
	DarkLogo string `json:"darkLogo"`
}

// GameJSON is the raw NHL API game document stored by the backend.
type GameJSON struct {
	HomeTeam TeamLogo `json:"homeTeam"`
	AwayTeam TeamLogo `json:"awayTeam"`
}

// Game is a scheduled game with both teams.
type Game struct {
	ID       int64    `json:"id,omitempty"`
	GameDate string   `json:"game_date,omitempty"`
	HomeTeam Team     `json:"home_team"`
	AwayTeam Team     `json:"away_team"`
	GameJSON GameJSON `json:"game_json"`
}

// GamePrediction is the model output for one game.
type GamePrediction struct {
	ID                      int64        `json:"id"`
	Game                    Game         `json:"game"`
	PredictedHomeTeamWin    bool         `json:"predicted_home_team_win"`
	ConfidenceScore         float64      `json:"confidence_score"`
	TopFeaturesDescriptions Descriptions `json:"top_features_descriptions"`
}

// Winner returns the predicted winning team.
func (p GamePrediction) Winner() Team {
	if p.PredictedHomeTeamWin {
		return p.Game.HomeTeam
	}
	return p.Game.AwayTeam
}

// WinnerLogo returns the dark logo URL of the predicted winner.
func (p GamePrediction) WinnerLogo() string {
	if p.PredictedHomeTeamWin {
		return p.Game.GameJSON.HomeTeam.DarkLogo
	}
	return p.Game.GameJSON.AwayTeam.DarkLogo
}

// validate checks the fields the renderer relies on.
func (p GamePrediction) validate() error {
	if math.IsNaN(p.ConfidenceScore) || p.ConfidenceScore < 0 || p.ConfidenceScore > 1 {
		return fmt.Errorf("prediction %d: confidence_score %v outside [0, 1]", p.ID, p.ConfidenceScore)
	}
	return nil
}

// PredictionModel describes the model that produced the predictions.
type PredictionModel struct {
	Name               string      `json:"name"`
	Version            string      `json:"version"`
	TrainedSeasons     []string    `json:"trained_seasons"`
	FeatureImportances Importances `json:"feature_importances"`
}

// FeatureDescription is one entry of top_features_descriptions.
type FeatureDescription struct {
	Label       string
	Description string
	Importance  float64
}

// Descriptions is an insertion-ordered mapping of feature label to
// [description, importance]. Order follows the JSON object's key order.
type Descriptions []FeatureDescription

// UnmarshalJSON decodes a JSON object of label -> [description, importance],
// keeping key order. A repeated key keeps its first position and last value.
func (d *Descriptions) UnmarshalJSON(data []byte) error {
	var out Descriptions
	index := make(map[string]int)

	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return fmt.Errorf("feature %q: %w", key, err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("feature %q: expected [description, importance], got %d elements", key, len(pair))
		}

		entry := FeatureDescription{Label: key}
		if err := json.Unmarshal(pair[0], &entry.Description); err != nil {
			return fmt.Errorf("feature %q description: %w", key, err)
		}
		if err := json.Unmarshal(pair[1], &entry.Importance); err != nil {
			return fmt.Errorf("feature %q importance: %w", key, err)
		}

		if i, ok := index[key]; ok {
			out[i] = entry
			return nil
		}
		index[key] = len(out)
		out = append(out, entry)
		return nil
	})
	if err != nil {
		return err
	}

	*d = out
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in stored order.
func (d Descriptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal([]any{entry.Description, entry.Importance})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FeatureImportance is one entry of a model's feature_importances.
type FeatureImportance struct {
	Label      string
	Importance float64
}

// Importances is an insertion-ordered mapping of feature label to importance.
type Importances []FeatureImportance

// UnmarshalJSON decodes a JSON object of label -> number, keeping key order.
func (m *Importances) UnmarshalJSON(data []byte) error {
	var out Importances
	index := make(map[string]int)

	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		entry := FeatureImportance{Label: key}
		if err := json.Unmarshal(raw, &entry.Importance); err != nil {
			return fmt.Errorf("importance %q: %w", key, err)
		}
		if i, ok := index[key]; ok {
			out[i] = entry
			return nil
		}
		index[key] = len(out)
		out = append(out, entry)
		return nil
	})
	if err != nil {
		return err
	}

	*m = out
	return nil
}

// MarshalJSON encodes the mapping as a JSON object in stored order.
func (m Importances) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Importance)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var errNotObject = errors.New("expected JSON object")

// decodeOrderedObject walks the members of a JSON object in document order.
// A JSON null decodes as an empty object.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("value for %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
