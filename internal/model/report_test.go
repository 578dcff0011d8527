package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

// TestReportJSON verifies the flat wire shape of the report.
func TestReportJSON(t *testing.T) {
	t.Parallel()

	t.Run("failed evaluation contains only the error field", func(t *testing.T) {
		t.Parallel()

		e := NewEvaluation("query", "https://example.invalid/", DefaultWeights())
		e.Scores = Scores{DomainTrust: 60, Bias: 50}
		e.Err = &FetchError{URL: e.URL, Err: errors.New("dial tcp: no such host")}

		data, err := json.Marshal(NewReport(e))
		if err != nil {
			t.Fatal(err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("expected exactly one field, got %v", got)
		}
		if got["error"] != "Failed to fetch content: dial tcp: no such host" {
			t.Errorf("unexpected error field: %v", got["error"])
		}
	})

	t.Run("successful evaluation contains all named scores", func(t *testing.T) {
		t.Parallel()

		e := NewEvaluation("query", "https://example.com/", DefaultWeights())
		e.Scores = Scores{DomainTrust: 60, Relevance: 80, FactCheck: 0, Bias: 100, Citation: 0}
		e.Final = e.Weights.Combine(e.Scores)

		data, err := json.Marshal(NewReport(e))
		if err != nil {
			t.Fatal(err)
		}

		var got map[string]float64
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}

		want := map[string]float64{
			"Domain Trust":         60,
			"Content Relevance":    80,
			"Fact-Check Score":     0,
			"Bias Score":           100,
			"Citation Score":       0,
			"Final Validity Score": 52,
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d fields, got %v", len(want), got)
		}
		for k, v := range want {
			if !almostEqual(got[k], v) {
				t.Errorf("%s = %v, want %v", k, got[k], v)
			}
		}
	})
}

// TestNewEvaluation checks host extraction and defaults.
func TestNewEvaluation(t *testing.T) {
	t.Parallel()

	e := NewEvaluation("q", "https://News.Example.COM:8443/a?b=c", DefaultWeights())
	if e.Host != "news.example.com" {
		t.Errorf("expected host news.example.com, got %q", e.Host)
	}
	if e.ID == "" {
		t.Error("expected non-empty ID")
	}
	if e.Failed() {
		t.Error("new evaluation should not be failed")
	}
}

// TestClamp tests score clamping.
func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{-12, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{130, 100},
		{math.NaN(), 0},
		{math.Inf(1), 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestComponentDisplayName checks report labels.
func TestComponentDisplayName(t *testing.T) {
	t.Parallel()

	want := []string{"Domain Trust", "Content Relevance", "Fact-Check Score", "Bias Score", "Citation Score"}
	for i, c := range Components() {
		if c.DisplayName() != want[i] {
			t.Errorf("%s display name = %q, want %q", c, c.DisplayName(), want[i])
		}
	}
}
