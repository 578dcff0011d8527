package scorer

import (
	"context"
	"net"
	"strings"

	"github.com/nao1215/validity/internal/model"
)

// DomainTruster estimates how trustworthy a site is.
type DomainTruster interface {
	DomainTrust(ctx context.Context, host string) (float64, error)
}

// TrustLookup is a source that may or may not know a host.
type TrustLookup interface {
	LookupDomainTrust(ctx context.Context, host string) (score float64, found bool, err error)
}

// Constant returns the same trust score for every host.
type Constant float64

// DomainTrust implements DomainTruster.
func (c Constant) DomainTrust(context.Context, string) (float64, error) {
	return model.Clamp(float64(c)), nil
}

// Table is an in-memory domain to score map.
// A host matches its own entry or the entry of any parent domain.
type Table map[string]float64

// LookupDomainTrust implements TrustLookup.
func (t Table) LookupDomainTrust(_ context.Context, host string) (float64, bool, error) {
	for _, candidate := range DomainCandidates(host) {
		if score, ok := t[candidate]; ok {
			return model.Clamp(score), true, nil
		}
	}
	return 0, false, nil
}

// Chain asks each lookup in order and falls back when none knows the host.
type Chain struct {
	lookups  []TrustLookup
	fallback DomainTruster
}

// NewChain creates a Chain. A nil fallback means the placeholder constant.
func NewChain(fallback DomainTruster, lookups ...TrustLookup) *Chain {
	if fallback == nil {
		fallback = Constant(DefaultDomainTrust)
	}
	return &Chain{lookups: lookups, fallback: fallback}
}

// DefaultDomainTrust is the placeholder trust score.
const DefaultDomainTrust = 60

// DomainTrust implements DomainTruster.
func (c *Chain) DomainTrust(ctx context.Context, host string) (float64, error) {
	for _, l := range c.lookups {
		score, found, err := l.LookupDomainTrust(ctx, host)
		if err != nil {
			return 0, err
		}
		if found {
			return model.Clamp(score), nil
		}
	}
	return c.fallback.DomainTrust(ctx, host)
}

// NormalizeHost lowercases host and strips the port, a trailing dot and "www.".
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}

// DomainCandidates returns host followed by its parent domains, most
// specific first. Top-level domains alone are not included.
// "news.bbc.co.uk" yields news.bbc.co.uk, bbc.co.uk, co.uk.
func DomainCandidates(host string) []string {
	host = NormalizeHost(host)
	if host == "" {
		return nil
	}
	if net.ParseIP(host) != nil {
		return []string{host}
	}

	labels := strings.Split(host, ".")
	candidates := make([]string, 0, len(labels))
	for i := 0; i < len(labels)-1; i++ {
		candidates = append(candidates, strings.Join(labels[i:], "."))
	}
	if len(candidates) == 0 {
		candidates = append(candidates, host)
	}
	return candidates
}
