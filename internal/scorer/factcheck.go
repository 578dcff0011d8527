package scorer

import (
	"context"
	"net/url"
	"strings"

	"github.com/nao1215/validity/internal/model"
)

// FactChecker scores how well the claims in a text hold up.
type FactChecker interface {
	FactCheck(ctx context.Context, text string) (float64, error)
}

// NoFactCheck is used when no fact-check service is configured. It always scores 0.
type NoFactCheck struct{}

// FactCheck implements FactChecker.
func (NoFactCheck) FactCheck(context.Context, string) (float64, error) {
	return 0, nil
}

const (
	// factCheckQueryRunes is how much page text is sent as the claim query.
	factCheckQueryRunes = 200

	// unratedFactCheckScore is used when reviews exist but none is decisive,
	// and when no claim matches.
	unratedFactCheckScore = 50.0
)

// Rating is the verdict class of one fact-check review.
type Rating int

// Rating classes.
const (
	RatingUnrated Rating = iota
	RatingSupported
	RatingRefuted
)

// Keywords are checked in order: mixed verdicts first, then refuted, then
// supported, so "half true" and "not true" do not count as supported.
var (
	mixedRatingKeywords     = []string{"half", "mixed", "mixture", "partly", "partially", "unproven", "unverified", "disputed"}
	refutedRatingKeywords   = []string{"false", "fake", "incorrect", "inaccurate", "misleading", "pants on fire", "not true", "untrue", "wrong", "fabricated", "debunked", "no evidence", "hoax", "scam"}
	supportedRatingKeywords = []string{"true", "correct", "accurate", "verified", "legit", "confirmed"}
)

// ClassifyRating maps a free-form textual rating to a Rating.
func ClassifyRating(textual string) Rating {
	r := strings.ToLower(strings.TrimSpace(textual))
	if r == "" {
		return RatingUnrated
	}
	for _, kw := range mixedRatingKeywords {
		if strings.Contains(r, kw) {
			return RatingUnrated
		}
	}
	for _, kw := range refutedRatingKeywords {
		if strings.Contains(r, kw) {
			return RatingRefuted
		}
	}
	for _, kw := range supportedRatingKeywords {
		if strings.Contains(r, kw) {
			return RatingSupported
		}
	}
	return RatingUnrated
}

// GoogleFactCheck searches the Google Fact Check Tools API for claims
// matching the start of the page text.
type GoogleFactCheck struct {
	service
	endpoint string
	apiKey   string
	language string
}

// NewGoogleFactCheck creates a fact checker for the claims:search endpoint.
func NewGoogleFactCheck(endpoint, apiKey string, opts ...ServiceOption) *GoogleFactCheck {
	return &GoogleFactCheck{
		service:  newService("fact-check API", opts),
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// WithLanguage restricts reviews to a BCP-47 language code such as "en".
func (g *GoogleFactCheck) WithLanguage(code string) *GoogleFactCheck {
	g.language = code
	return g
}

type claimSearchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// FactCheck returns 100 * supported / (supported + refuted) over all
// reviews of matching claims. It returns 50 when nothing matches or no
// review is decisive, and 0 for empty text.
func (g *GoogleFactCheck) FactCheck(ctx context.Context, text string) (float64, error) {
	query := strings.Join(strings.Fields(Truncate(text, factCheckQueryRunes)), " ")
	if query == "" {
		return 0, nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", g.apiKey)
	if g.language != "" {
		params.Set("languageCode", g.language)
	}

	var resp claimSearchResponse
	if err := g.getJSON(ctx, g.endpoint+"?"+params.Encode(), &resp); err != nil {
		return 0, err
	}

	var supported, refuted int
	for _, claim := range resp.Claims {
		for _, review := range claim.ClaimReview {
			switch ClassifyRating(review.TextualRating) {
			case RatingSupported:
				supported++
			case RatingRefuted:
				refuted++
			case RatingUnrated:
			}
		}
	}

	g.logger.Debug("fact-check result",
		"claims", len(resp.Claims),
		"supported", supported,
		"refuted", refuted)

	if supported+refuted == 0 {
		return unratedFactCheckScore, nil
	}
	return model.Clamp(100 * float64(supported) / float64(supported+refuted)), nil
}
