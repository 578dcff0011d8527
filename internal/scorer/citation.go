package scorer

import (
	"context"
	"net/url"
	"strings"

	"github.com/nao1215/validity/internal/model"
)

// CitationCounter reports how often a page is cited.
type CitationCounter interface {
	CitationCount(ctx context.Context, pageURL string) (int, error)
}

// NoCitations is used when no citation service is configured. It always counts 0.
type NoCitations struct{}

// CitationCount implements CitationCounter.
func (NoCitations) CitationCount(context.Context, string) (int, error) {
	return 0, nil
}

// pointsPerCitation converts a citation count into score points.
const pointsPerCitation = 10

// CitationScore returns min(count*10, 100). Negative counts score 0.
func CitationScore(count int) float64 {
	if count <= 0 {
		return 0
	}
	if count >= int(model.MaxScore)/pointsPerCitation {
		return model.MaxScore
	}
	return float64(count * pointsPerCitation)
}

// ScholarCitations counts citations with a Google Scholar search through SerpAPI.
type ScholarCitations struct {
	service
	endpoint string
	apiKey   string
}

// NewScholarCitations creates a citation counter for the SerpAPI search endpoint.
func NewScholarCitations(endpoint, apiKey string, opts ...ServiceOption) *ScholarCitations {
	return &ScholarCitations{
		service:  newService("SerpAPI", opts),
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// noResultsMessage is how SerpAPI reports an empty result set with status 200.
const noResultsMessage = "hasn't returned any results"

type scholarResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title       string `json:"title"`
		InlineLinks struct {
			CitedBy struct {
				Total int `json:"total"`
			} `json:"cited_by"`
		} `json:"inline_links"`
	} `json:"organic_results"`
}

// CitationCount returns the "cited by" total of the first Scholar result
// for pageURL, or 0 when nothing is found.
func (s *ScholarCitations) CitationCount(ctx context.Context, pageURL string) (int, error) {
	params := url.Values{}
	params.Set("engine", "google_scholar")
	params.Set("q", pageURL)
	params.Set("api_key", s.apiKey)

	var resp scholarResponse
	if err := s.getJSON(ctx, s.endpoint+"?"+params.Encode(), &resp); err != nil {
		return 0, err
	}
	if resp.Error != "" {
		if strings.Contains(resp.Error, noResultsMessage) {
			return 0, nil
		}
		return 0, &ServiceError{Service: s.name, StatusCode: 200, Message: resp.Error}
	}
	if len(resp.OrganicResults) == 0 {
		return 0, nil
	}
	return resp.OrganicResults[0].InlineLinks.CitedBy.Total, nil
}
