package scorer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// TestClassifyRating tests verdict classification.
func TestClassifyRating(t *testing.T) {
	t.Parallel()

	tests := map[string]Rating{
		"True":          RatingSupported,
		"Mostly True":   RatingSupported,
		"Correct":       RatingSupported,
		"False":         RatingRefuted,
		"Mostly false":  RatingRefuted,
		"Pants on Fire": RatingRefuted,
		"Incorrect":     RatingRefuted,
		"Not true":      RatingRefuted,
		"Misleading":    RatingRefuted,
		"Half True":     RatingUnrated,
		"Unverified":    RatingUnrated,
		"Satire":        RatingUnrated,
		"":              RatingUnrated,
	}
	for rating, want := range tests {
		if got := ClassifyRating(rating); got != want {
			t.Errorf("ClassifyRating(%q) = %v, want %v", rating, got, want)
		}
	}
}

// TestGoogleFactCheck tests claim search scoring.
func TestGoogleFactCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want float64
	}{
		{
			name: "all supported",
			body: `{"claims":[{"text":"c","claimReview":[{"textualRating":"True"},{"textualRating":"Correct"}]}]}`,
			want: 100,
		},
		{
			name: "mixed verdicts",
			body: `{"claims":[{"claimReview":[{"textualRating":"True"}]},{"claimReview":[{"textualRating":"False"},{"textualRating":"Pants on Fire"},{"textualRating":"Mostly True"}]}]}`,
			want: 50,
		},
		{
			name: "one supported three refuted",
			body: `{"claims":[{"claimReview":[{"textualRating":"True"},{"textualRating":"False"},{"textualRating":"Fake"},{"textualRating":"Wrong"}]}]}`,
			want: 25,
		},
		{
			name: "claims without decisive rating",
			body: `{"claims":[{"claimReview":[{"textualRating":"Half True"}]}]}`,
			want: 50,
		},
		{
			name: "no claims",
			body: `{}`,
			want: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("key") != "secret" {
					t.Errorf("missing API key")
				}
				if r.URL.Query().Get("query") != "The earth is flat." {
					t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
				}
				_, _ = w.Write([]byte(tt.body))
			})

			fc := NewGoogleFactCheck(srv.URL, "secret", WithServiceHTTPClient(srv.Client()))
			got, err := fc.FactCheck(context.Background(), "The earth   is\nflat.")
			if err != nil {
				t.Fatalf("FactCheck() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FactCheck() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()

		srv := newAPIServer(t, func(http.ResponseWriter, *http.Request) {
			t.Error("server must not be called")
		})
		got, err := NewGoogleFactCheck(srv.URL, "k", WithServiceHTTPClient(srv.Client())).FactCheck(context.Background(), "  ")
		if err != nil || got != 0 {
			t.Errorf("FactCheck() = %v, %v; want 0", got, err)
		}
	})

	t.Run("language code", func(t *testing.T) {
		t.Parallel()

		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("languageCode"); got != "en" {
				t.Errorf("languageCode = %q, want en", got)
			}
			_, _ = w.Write([]byte(`{}`))
		})
		fc := NewGoogleFactCheck(srv.URL, "k", WithServiceHTTPClient(srv.Client())).WithLanguage("en")
		got, err := fc.FactCheck(context.Background(), "some claim")
		if err != nil || got != 50 {
			t.Errorf("FactCheck() = %v, %v; want 50", got, err)
		}
	})

	t.Run("api error", func(t *testing.T) {
		t.Parallel()

		srv := newAPIServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid."}}`))
		})
		_, err := NewGoogleFactCheck(srv.URL, "bad", WithServiceHTTPClient(srv.Client())).FactCheck(context.Background(), "text")

		var se *ServiceError
		if !errors.As(err, &se) {
			t.Fatalf("expected *ServiceError, got %v", err)
		}
		if se.StatusCode != http.StatusForbidden || se.Message != "API key not valid." {
			t.Errorf("unexpected ServiceError %+v", se)
		}
	})

	t.Run("no service configured", func(t *testing.T) {
		t.Parallel()

		got, err := NoFactCheck{}.FactCheck(context.Background(), "anything")
		if err != nil || got != 0 {
			t.Errorf("NoFactCheck = %v, %v", got, err)
		}
	})
}

// TestCitationScore tests count normalization.
func TestCitationScore(t *testing.T) {
	t.Parallel()

	tests := map[int]float64{
		-3: 0,
		0:  0,
		1:  10,
		7:  70,
		10: 100,
		15: 100,
	}
	for count, want := range tests {
		if got := CitationScore(count); got != want {
			t.Errorf("CitationScore(%d) = %v, want %v", count, got, want)
		}
	}
}

// TestScholarCitations tests the SerpAPI Scholar lookup.
func TestScholarCitations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{
			name: "first result count",
			body: `{"organic_results":[{"title":"A","inline_links":{"cited_by":{"total":7}}},{"inline_links":{"cited_by":{"total":99}}}]}`,
			want: 7,
		},
		{
			name: "result without citations",
			body: `{"organic_results":[{"title":"A"}]}`,
			want: 0,
		},
		{
			name: "no results message",
			body: `{"error":"Google hasn't returned any results for this query."}`,
			want: 0,
		},
		{
			name:    "other error",
			body:    `{"error":"Invalid API key."}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("engine") != "google_scholar" || q.Get("api_key") != "serp" || q.Get("q") != "https://example.com/paper" {
					t.Errorf("unexpected query %v", q)
				}
				_, _ = w.Write([]byte(tt.body))
			})

			sc := NewScholarCitations(srv.URL, "serp", WithServiceHTTPClient(srv.Client()))
			got, err := sc.CitationCount(context.Background(), "https://example.com/paper")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CitationCount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CitationCount() = %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("no service configured", func(t *testing.T) {
		t.Parallel()

		got, err := NoCitations{}.CitationCount(context.Background(), "https://example.com")
		if err != nil || got != 0 {
			t.Errorf("NoCitations = %v, %v", got, err)
		}
	})
}

// TestServiceErrorMasksAPIKey tests that transport errors do not carry the
// API key of the request URL.
func TestServiceErrorMasksAPIKey(t *testing.T) {
	t.Parallel()

	const apiKey = "SUPERSECRETKEY123"

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	t.Run("citation", func(t *testing.T) {
		t.Parallel()

		_, err := NewScholarCitations(endpoint, apiKey).CitationCount(context.Background(), "https://example.com/paper")
		if err == nil {
			t.Fatal("expected an error from a closed server")
		}
		if strings.Contains(err.Error(), apiKey) {
			t.Errorf("API key leaked into error: %v", err)
		}
		if !strings.Contains(err.Error(), "api_key=***REDACTED***") {
			t.Errorf("expected masked api_key in %v", err)
		}
	})

	t.Run("fact-check", func(t *testing.T) {
		t.Parallel()

		_, err := NewGoogleFactCheck(endpoint, apiKey).FactCheck(context.Background(), "The earth is flat.")
		if err == nil {
			t.Fatal("expected an error from a closed server")
		}
		if strings.Contains(err.Error(), apiKey) {
			t.Errorf("API key leaked into error: %v", err)
		}
	})
}
