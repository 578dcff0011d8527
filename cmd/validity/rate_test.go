package main

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/validity/internal/config"
	"github.com/nao1215/validity/internal/database"
	"github.com/nao1215/validity/internal/log"
	"github.com/nao1215/validity/internal/model"
)

// TestParseWeights tests the --weights flag values.
func TestParseWeights(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    model.Weights
		wantErr error
	}{
		{
			name:  "balanced preset",
			input: "balanced",
			want:  model.DefaultWeights(),
		},
		{
			name:  "relevance preset",
			input: "relevance",
			want:  model.Weights{Relevance: 0.7, Bias: 0.3},
		},
		{
			name:  "custom list",
			input: "0.4, 0.4, 0.2, 0, 0",
			want:  model.Weights{DomainTrust: 0.4, Relevance: 0.4, FactCheck: 0.2},
		},
		{
			name:    "unknown preset",
			input:   "strict",
			wantErr: model.ErrUnknownPreset,
		},
		{
			name:    "too few values",
			input:   "0.5,0.5",
			wantErr: errInvalidWeightList,
		},
		{
			name:    "not a number",
			input:   "a,b,c,d,e",
			wantErr: errInvalidWeightList,
		},
		{
			name:    "bad sum",
			input:   "0.5,0.5,0.5,0,0",
			wantErr: model.ErrWeightSum,
		},
		{
			name:    "negative",
			input:   "1.2,-0.2,0,0,0",
			wantErr: model.ErrNegativeWeight,
		},
		{
			name:    "NaN weight",
			input:   "NaN,0,0,0,1",
			wantErr: model.ErrNonFiniteWeight,
		},
		{
			name:    "infinite weight",
			input:   "0,+Inf,0,0,0",
			wantErr: model.ErrNonFiniteWeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseWeights(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseWeights(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWeights(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseWeights(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

// TestBuildConfig tests the precedence of flags over the configuration file.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `on_fetch_error: degrade
timeout: 20s
preset: relevance
inference:
  embedding_url: http://embed.internal:8080
domain_trust:
  database: false
  domains:
    WWW.Example.org: 80
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("file values without flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewRateCmd()
		if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"query", "https://example.org/"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.FetchPolicy != config.FetchPolicyDegrade {
			t.Errorf("FetchPolicy = %q", cfg.FetchPolicy)
		}
		if cfg.Timeout != 20*time.Second {
			t.Errorf("Timeout = %v", cfg.Timeout)
		}
		if cfg.Weights != (model.Weights{Relevance: 0.7, Bias: 0.3}) {
			t.Errorf("Weights = %+v", cfg.Weights)
		}
		if cfg.EmbeddingURL != "http://embed.internal:8080" || cfg.ClassifierURL != config.DefaultClassifierURL {
			t.Errorf("EmbeddingURL = %q, ClassifierURL = %q", cfg.EmbeddingURL, cfg.ClassifierURL)
		}
		if cfg.UseTrustDB {
			t.Error("UseTrustDB should be disabled by the file")
		}
		if cfg.DomainTrust["example.org"] != 80 {
			t.Errorf("DomainTrust = %v", cfg.DomainTrust)
		}
		if cfg.Query != "query" || cfg.URL != "https://example.org/" {
			t.Errorf("Query = %q, URL = %q", cfg.Query, cfg.URL)
		}
	})

	t.Run("flags override the file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRateCmd()
		err := cmd.ParseFlags([]string{
			"--config", path,
			"--timeout", "5s",
			"--on-fetch-error", "fail",
			"-w", "balanced",
			"--embedding-url", "http://localhost:9000",
			"--detailed",
			"--log-format", "json",
		})
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"query", "https://example.org/"})
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.Timeout != 5*time.Second || cfg.FetchPolicy != config.FetchPolicyFail {
			t.Errorf("Timeout = %v, FetchPolicy = %q", cfg.Timeout, cfg.FetchPolicy)
		}
		if cfg.Weights != model.DefaultWeights() {
			t.Errorf("Weights = %+v", cfg.Weights)
		}
		if cfg.EmbeddingURL != "http://localhost:9000" {
			t.Errorf("EmbeddingURL = %q", cfg.EmbeddingURL)
		}
		if !cfg.JSONReport || !cfg.DetailedJSON {
			t.Error("--detailed should enable the JSON report")
		}
		if cfg.LogFormat != log.FormatJSON {
			t.Errorf("LogFormat = %q", cfg.LogFormat)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRateCmd()
		if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, []string{"q", "https://example.org/"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid policy flag", func(t *testing.T) {
		t.Parallel()

		cmd := NewRateCmd()
		if err := cmd.ParseFlags([]string{"--config", path, "--on-fetch-error", "retry"}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, []string{"q", "https://example.org/"})
		if !errors.Is(err, config.ErrUnknownFetchPolicy) {
			t.Errorf("expected ErrUnknownFetchPolicy, got %v", err)
		}
	})
}

// newModelServer fakes a text-embeddings-inference server. Every input
// embeds to the same vector and every text is classified POSITIVE.
func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs []string `json:"inputs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		vectors := make([][]float64, len(req.Inputs))
		for i := range vectors {
			vectors[i] = []float64{1, 0, 0}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(vectors)
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"label":"NEGATIVE","score":0.05},{"label":"POSITIVE","score":0.9}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newArticleServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Coffee</title></head><body>
<p>Coffee is a mild diuretic.</p><p>It does not dehydrate regular drinkers.</p>
</body></html>`))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestRateCmd runs the rate command end to end against fake servers.
// Without API keys fact-check and citation score 0. It does not run in
// parallel because it clears the credential environment.
func TestRateCmd(t *testing.T) {
	t.Setenv(config.CredentialFactCheck.EnvVar(), "")
	t.Setenv(config.CredentialSerpAPI.EnvVar(), "")
	t.Setenv(config.CredentialInference.EnvVar(), "")

	models := newModelServer(t)
	pages := newArticleServer(t)

	emptyConfig := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(emptyConfig, []byte("preset: balanced\n"), 0600); err != nil {
		t.Fatal(err)
	}

	rate := func(t *testing.T, extra ...string) (string, error) {
		t.Helper()
		args := []string{
			"rate",
			"--config", emptyConfig,
			"--no-trust-db",
			"--embedding-url", models.URL,
			"--classifier-url", models.URL,
		}
		args = append(args, extra...)
		out, _, err := execute(t, "", args...)
		return out, err
	}

	decode := func(t *testing.T, out string) map[string]any {
		t.Helper()
		var m map[string]any
		if err := json.Unmarshal([]byte(out), &m); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		return m
	}

	t.Run("json report", func(t *testing.T) {
		out, err := rate(t, "--json", "does coffee dehydrate", pages.URL+"/article")
		if err != nil {
			t.Fatalf("rate failed: %v", err)
		}
		m := decode(t, out)

		want := map[string]float64{
			"Domain Trust":         60,
			"Content Relevance":    100,
			"Fact-Check Score":     0,
			"Bias Score":           100,
			"Citation Score":       0,
			"Final Validity Score": 58,
		}
		for name, score := range want {
			got, ok := m[name].(float64)
			if !ok || math.Abs(got-score) > 1e-6 {
				t.Errorf("%s = %v, want %v", name, m[name], score)
			}
		}
	})

	t.Run("fetch failure reports only the error", func(t *testing.T) {
		out, err := rate(t, "--json", "coffee", pages.URL+"/gone")
		if !errors.Is(err, errEvaluationFailed) {
			t.Fatalf("expected errEvaluationFailed, got %v", err)
		}
		m := decode(t, out)
		if len(m) != 1 {
			t.Errorf("expected only the error key, got %v", m)
		}
		msg, _ := m["error"].(string)
		if !strings.Contains(msg, "404 Client Error") {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("degrade policy keeps scoring", func(t *testing.T) {
		out, err := rate(t, "--json", "--on-fetch-error", "degrade", "coffee", pages.URL+"/gone")
		if err != nil {
			t.Fatalf("rate failed: %v", err)
		}
		m := decode(t, out)
		// 0.3*60 + 0.1*50
		if got, _ := m[model.FinalScoreName].(float64); math.Abs(got-23) > 1e-6 {
			t.Errorf("final = %v, want 23", m[model.FinalScoreName])
		}
	})

	t.Run("detailed json", func(t *testing.T) {
		out, err := rate(t, "--detailed", "-w", "relevance", "coffee", pages.URL+"/article")
		if err != nil {
			t.Fatalf("rate failed: %v", err)
		}
		m := decode(t, out)
		if m["title"] != "Coffee" || m["bias_label"] != "POSITIVE" {
			t.Errorf("title = %v, bias_label = %v", m["title"], m["bias_label"])
		}
		scores, ok := m["report"].(map[string]any)
		if !ok {
			t.Fatalf("report missing: %v", m)
		}
		if got, _ := scores[model.FinalScoreName].(float64); math.Abs(got-100) > 1e-6 {
			t.Errorf("final = %v, want 100", scores[model.FinalScoreName])
		}
	})

	t.Run("markdown to file with metrics", func(t *testing.T) {
		dir := t.TempDir()
		reportPath := filepath.Join(dir, "reports", "coffee.md")
		metricsPath := filepath.Join(dir, "validity.prom")

		out, err := rate(t, "--markdown", "-o", reportPath, "--metrics-file", metricsPath,
			"coffee", pages.URL+"/article")
		if err != nil {
			t.Fatalf("rate failed: %v", err)
		}
		if !strings.Contains(out, model.FinalScoreName) {
			t.Errorf("stdout should carry the plain summary, got %q", out)
		}

		info, err := os.Stat(reportPath)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
			t.Errorf("report mode = %v, want 0600", info.Mode().Perm())
		}
		data, err := os.ReadFile(reportPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "# Validity Report") {
			t.Errorf("unexpected markdown:\n%s", data)
		}

		prom, err := os.ReadFile(metricsPath) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("metrics not written: %v", err)
		}
		for _, want := range []string{"validity_final_score ", `validity_evaluations_total{outcome="ok"} 1`, `validity_component_score{component="bias"} 100`} {
			if !strings.Contains(string(prom), want) {
				t.Errorf("metrics missing %q:\n%s", want, prom)
			}
		}
	})

	t.Run("trust database feeds domain trust", func(t *testing.T) {
		dbDir := t.TempDir()
		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		// httptest listens on 127.0.0.1
		if err := db.SetDomainTrust(t.Context(), "127.0.0.1", 100, ""); err != nil {
			t.Fatal(err)
		}
		if err := db.Close(); err != nil {
			t.Fatal(err)
		}

		out, _, err := execute(t, "",
			"rate",
			"--config", emptyConfig,
			"--db-dir", dbDir,
			"--embedding-url", models.URL,
			"--classifier-url", models.URL,
			"--json",
			"coffee", pages.URL+"/article",
		)
		if err != nil {
			t.Fatalf("rate failed: %v", err)
		}
		m := decode(t, out)
		if got, _ := m["Domain Trust"].(float64); got != 100 {
			t.Errorf("Domain Trust = %v, want 100", m["Domain Trust"])
		}
	})

	t.Run("json logs on stderr", func(t *testing.T) {
		_, stderr, err := execute(t, "",
			"rate",
			"--config", emptyConfig,
			"--no-trust-db",
			"--embedding-url", models.URL,
			"--classifier-url", models.URL,
			"--log-format", "json",
			"--verbose",
			"coffee", pages.URL+"/article",
		)
		if err != nil {
			t.Fatalf("rate failed: %v", err)
		}
		for _, want := range []string{`"msg":"evaluating page"`, `"tor":false`} {
			if !strings.Contains(stderr, want) {
				t.Errorf("stderr missing %q:\n%s", want, stderr)
			}
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		_, err := rate(t, "--json", "--markdown", "q", pages.URL+"/article")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
		_, err = rate(t, "", pages.URL+"/article")
		if !errors.Is(err, config.ErrNoQuery) {
			t.Errorf("expected ErrNoQuery, got %v", err)
		}
		_, err = rate(t, "--log-format", "logfmt", "q", pages.URL+"/article")
		if !errors.Is(err, log.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
		if _, err := rate(t, "only-one-arg"); err == nil {
			t.Error("expected argument count error")
		}
	})
}
