package normalize

import (
	"testing"

	"github.com/okian/rosterlens/internal/domain/model"
)

func TestCanonicalName(t *testing.T) {
	cases := map[string]string{
		"Kenneth Walker III": "kenneth walker",
		"D.J. Moore":         "dj moore",
		"Amon-Ra St. Brown":  "amon ra st brown",
		"Odell Beckham Jr.":  "odell beckham",
		"Zoë  Ártemis":       "zoe artemis",
		"V":                  "v",
	}
	for in, want := range cases {
		if got := CanonicalName(in); got != want {
			t.Errorf("CanonicalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalTeam(t *testing.T) {
	cases := map[string]string{"gbp": "GB", "KCC": "KC", " sf ": "SF", "FA": "", "JAC": "JAX", "BUF": "BUF"}
	for in, want := range cases {
		if got := CanonicalTeam(in); got != want {
			t.Errorf("CanonicalTeam(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAsFloatAndRank(t *testing.T) {
	if _, ok := asFloat("NA"); ok {
		t.Error("NA should be unknown")
	}
	if _, ok := asFloat(""); ok {
		t.Error("empty string should be unknown")
	}
	if v, ok := asFloat(" 12.5 "); !ok || v != 12.5 {
		t.Errorf("expected 12.5, got %v %v", v, ok)
	}
	if v, ok := asFloat(map[string]any{"value": 3}); !ok || v != 3 {
		t.Errorf("expected nested value 3, got %v %v", v, ok)
	}
	if r, ok := asRank("RB12"); !ok || r != 12 {
		t.Errorf("expected rank 12, got %v %v", r, ok)
	}
	if _, ok := asRank(0.0); ok {
		t.Error("rank 0 should be unknown")
	}
}

func TestLookupNested(t *testing.T) {
	row := Row{"stats": map[string]any{"pts": 21.5}}
	if v, ok := asFloat(lookup(row, "stats.pts")); !ok || v != 21.5 {
		t.Errorf("expected 21.5, got %v %v", v, ok)
	}
	if lookup(row, "stats.missing") != nil {
		t.Error("missing path should be nil")
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver(0.88)
	r.Add(model.PlayerRef{ID: "fp-1", Name: "Ja'Marr Chase", Position: model.WR, Team: "CIN"})
	r.Add(model.PlayerRef{ID: "fp-2", Name: "Mike Williams", Position: model.WR, Team: "NYJ"})
	r.Add(model.PlayerRef{ID: "fp-3", Name: "Mike Williams", Position: model.WR, Team: "LAC"})
	r.Add(model.PlayerRef{ID: "fp-4", Name: "Kenneth Walker III", Position: model.RB, Team: "SEA"})

	if id, score, ok := r.Resolve("JaMarr Chase", model.WR, "CIN"); !ok || id != "fp-1" || score != 1 {
		t.Errorf("exact after folding: got %q %v %v", id, score, ok)
	}
	if id, _, ok := r.Resolve("Mike Williams", model.WR, "LAC"); !ok || id != "fp-3" {
		t.Errorf("team disambiguation: got %q %v", id, ok)
	}
	if id, _, ok := r.Resolve("Kenneth Walker", model.RB, "FA"); !ok || id != "fp-4" {
		t.Errorf("name-only match: got %q %v", id, ok)
	}
	if id, score, ok := r.Resolve("Kenneth Walkr", model.RB, "SEA"); !ok || id != "fp-4" || score >= 1 {
		t.Errorf("fuzzy match: got %q %v %v", id, score, ok)
	}
	if _, _, ok := r.Resolve("Kenneth Walker", model.WR, "SEA"); ok {
		t.Error("different position must not match")
	}
	if _, _, ok := r.Resolve("Completely Different", model.RB, "SEA"); ok {
		t.Error("unrelated name must not match")
	}
}
