package scorer

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type stubLookup struct {
	scores map[string]float64
	err    error
	calls  int
}

func (s *stubLookup) LookupDomainTrust(_ context.Context, host string) (float64, bool, error) {
	s.calls++
	if s.err != nil {
		return 0, false, s.err
	}
	v, ok := s.scores[host]
	return v, ok, nil
}

// TestConstant tests the placeholder trust score.
func TestConstant(t *testing.T) {
	t.Parallel()

	for _, host := range []string{"example.com", "", "bbc.co.uk"} {
		got, err := Constant(60).DomainTrust(context.Background(), host)
		if err != nil || got != 60 {
			t.Errorf("Constant(60).DomainTrust(%q) = %v, %v", host, got, err)
		}
	}

	got, _ := Constant(150).DomainTrust(context.Background(), "x")
	if got != 100 {
		t.Errorf("expected clamped 100, got %v", got)
	}
}

// TestDomainCandidates tests parent-domain expansion.
func TestDomainCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want []string
	}{
		{host: "news.bbc.co.uk", want: []string{"news.bbc.co.uk", "bbc.co.uk", "co.uk"}},
		{host: "WWW.Nature.com", want: []string{"nature.com"}},
		{host: "example.com:8443", want: []string{"example.com"}},
		{host: "example.com.", want: []string{"example.com"}},
		{host: "localhost", want: []string{"localhost"}},
		{host: "127.0.0.1", want: []string{"127.0.0.1"}},
		{host: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			if got := DomainCandidates(tt.host); !slices.Equal(got, tt.want) {
				t.Errorf("DomainCandidates(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

// TestTable tests exact and parent-domain matches.
func TestTable(t *testing.T) {
	t.Parallel()

	table := Table{"nature.com": 95, "blog.nature.com": 40}

	tests := []struct {
		host      string
		wantScore float64
		wantFound bool
	}{
		{host: "nature.com", wantScore: 95, wantFound: true},
		{host: "www.nature.com", wantScore: 95, wantFound: true},
		{host: "news.nature.com", wantScore: 95, wantFound: true},
		{host: "blog.nature.com", wantScore: 40, wantFound: true},
		{host: "notnature.com", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()

			score, found, err := table.LookupDomainTrust(context.Background(), tt.host)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound || score != tt.wantScore {
				t.Errorf("LookupDomainTrust(%q) = %v, %v; want %v, %v", tt.host, score, found, tt.wantScore, tt.wantFound)
			}
		})
	}
}

// TestChain tests lookup order and the fallback.
func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("first lookup wins", func(t *testing.T) {
		t.Parallel()

		db := &stubLookup{scores: map[string]float64{"a.com": 90}}
		chain := NewChain(nil, db, Table{"a.com": 10})

		got, err := chain.DomainTrust(context.Background(), "a.com")
		if err != nil || got != 90 {
			t.Errorf("DomainTrust() = %v, %v; want 90", got, err)
		}
	})

	t.Run("later lookup used when earlier misses", func(t *testing.T) {
		t.Parallel()

		db := &stubLookup{}
		chain := NewChain(nil, db, Table{"b.com": 20})

		got, err := chain.DomainTrust(context.Background(), "b.com")
		if err != nil || got != 20 {
			t.Errorf("DomainTrust() = %v, %v; want 20", got, err)
		}
		if db.calls != 1 {
			t.Errorf("expected db to be consulted once, got %d", db.calls)
		}
	})

	t.Run("fallback is the placeholder", func(t *testing.T) {
		t.Parallel()

		got, err := NewChain(nil).DomainTrust(context.Background(), "unknown.org")
		if err != nil || got != DefaultDomainTrust {
			t.Errorf("DomainTrust() = %v, %v; want %v", got, err, DefaultDomainTrust)
		}
	})

	t.Run("lookup error is terminal", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("database is locked")
		chain := NewChain(Constant(60), &stubLookup{err: boom})

		if _, err := chain.DomainTrust(context.Background(), "a.com"); !errors.Is(err, boom) {
			t.Errorf("expected lookup error, got %v", err)
		}
	})
}
