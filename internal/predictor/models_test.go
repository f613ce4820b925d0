package predictor

import (
	"encoding/json"
	"testing"
)

func TestDescriptionsKeepKeyOrder(t *testing.T) {
	var d Descriptions
	data := `{"zeta":["last letter",0.1],"alpha":["first letter",0.9],"mid":["middle",0.5]}`
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	if len(d) != len(want) {
		t.Fatalf("got %d entries, want %d", len(d), len(want))
	}
	for i, label := range want {
		if d[i].Label != label {
			t.Errorf("entry %d label = %q, want %q", i, d[i].Label, label)
		}
	}
	if d[1].Description != "first letter" || d[1].Importance != 0.9 {
		t.Errorf("entry 1 = %+v", d[1])
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != data {
		t.Errorf("Marshal = %s, want %s", out, data)
	}
}

func TestDescriptionsDuplicateKeyKeepsFirstPosition(t *testing.T) {
	var d Descriptions
	data := `{"a":["one",0.1],"b":["two",0.2],"a":["three",0.3]}`
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(d) != 2 {
		t.Fatalf("got %d entries, want 2", len(d))
	}
	if d[0].Label != "a" || d[0].Description != "three" || d[0].Importance != 0.3 {
		t.Errorf("entry 0 = %+v, want a/three/0.3", d[0])
	}
}

func TestDescriptionsNullAndInvalid(t *testing.T) {
	var p GamePrediction
	if err := json.Unmarshal([]byte(`{"id":1,"top_features_descriptions":null}`), &p); err != nil {
		t.Fatalf("null descriptions: %v", err)
	}
	if len(p.TopFeaturesDescriptions) != 0 {
		t.Errorf("got %v, want empty", p.TopFeaturesDescriptions)
	}

	invalid := []string{
		`["not","an","object"]`,
		`{"a":"not a pair"}`,
		`{"a":[1,0.5]}`,
		`{"a":["desc","high"]}`,
	}
	for _, data := range invalid {
		var d Descriptions
		if err := json.Unmarshal([]byte(data), &d); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", data)
		}
	}
}

func TestImportancesKeepKeyOrder(t *testing.T) {
	var m Importances
	data := `{"home_win_pct":0.31,"goal_diff":0.12,"rest_days":0.05}`
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(m) != 3 || m[0].Label != "home_win_pct" || m[2].Label != "rest_days" {
		t.Errorf("got %+v", m)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != data {
		t.Errorf("Marshal = %s, want %s", out, data)
	}
}

func TestWinnerAway(t *testing.T) {
	p := GamePrediction{
		PredictedHomeTeamWin: false,
		Game: Game{
			HomeTeam: Team{Name: "Edmonton Oilers", Abbreviation: "EDM"},
			AwayTeam: Team{Name: "Calgary Flames", Abbreviation: "CGY"},
			GameJSON: GameJSON{
				HomeTeam: TeamLogo{DarkLogo: "edm.svg"},
				AwayTeam: TeamLogo{DarkLogo: "cgy.svg"},
			},
		},
	}
	if p.Winner().Abbreviation != "CGY" || p.WinnerLogo() != "cgy.svg" {
		t.Errorf("Winner() = %+v, WinnerLogo() = %q", p.Winner(), p.WinnerLogo())
	}
}
