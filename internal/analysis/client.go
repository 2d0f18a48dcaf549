package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/callsight/call-analysis/internal/types"
)

// Generator is the single point of contact with the external AI provider.
// Swappable so tests inject canned JSON.
type Generator interface {
	Generate(ctx context.Context, payload, mimeType string) (string, error)
}

// Client turns an encoded audio payload into an AnalysisResult through one
// provider request. No retries: every retry is a user-initiated repeat.
type Client struct {
	gen Generator
}

// NewClient creates an analysis client on top of a provider generator.
func NewClient(gen Generator) *Client {
	return &Client{gen: gen}
}

// Analyze issues one provider request and parses the reply strictly as a
// schema-conforming JSON object.
func (c *Client) Analyze(ctx context.Context, payload, mimeType string) (*types.AnalysisResult, error) {
	text, err := c.gen.Generate(ctx, payload, mimeType)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &ProviderError{Kind: ProviderGeneric, Err: err}
	}

	return ParseResult(text)
}

// ParseResult decodes provider output into the domain result. Missing
// required fields or non-JSON text fail with MalformedResponseError;
// out-of-enum categorical values are coerced, not rejected, since the
// payload comes from a generative model.
func ParseResult(text string) (*types.AnalysisResult, error) {
	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		return nil, &MalformedResponseError{Reason: "response is not valid JSON", Err: err}
	}

	if len(result.Transcript) == 0 {
		return nil, &MalformedResponseError{Reason: "transcript is missing or empty"}
	}
	if result.Summary == "" {
		return nil, &MalformedResponseError{Reason: "summary is missing"}
	}
	if result.RiskAssessment.Score == 0 {
		return nil, &MalformedResponseError{Reason: "risk assessment is missing"}
	}
	if result.NextSteps.PrimaryAction == "" {
		return nil, &MalformedResponseError{Reason: "next steps are missing"}
	}

	coerce(&result)
	return &result, nil
}

// coerce normalizes categorical fields and clamps numeric ranges.
func coerce(r *types.AnalysisResult) {
	r.CallType = pickEnum(r.CallType, types.CallOther,
		types.CallDiscovery, types.CallDemo, types.CallNegotiation,
		types.CallClosing, types.CallRenewal, types.CallOther)

	for i := range r.Objections {
		o := &r.Objections[i]
		o.Category = pickEnum(o.Category, types.ObjectionOther,
			types.ObjectionPrice, types.ObjectionTiming, types.ObjectionAuthority,
			types.ObjectionNeed, types.ObjectionCompetitor, types.ObjectionOther)
		o.HandlingQuality = pickEnum(o.HandlingQuality, types.HandlingWeak,
			types.HandlingStrong, types.HandlingWeak, types.HandlingMissed)
	}

	r.RiskAssessment.Score = clamp(r.RiskAssessment.Score, 1, 10)
	r.RiskAssessment.Level = pickEnum(r.RiskAssessment.Level, riskLevelForScore(r.RiskAssessment.Score),
		types.RiskLow, types.RiskMedium, types.RiskHigh, types.RiskCritical)

	for i := range r.Sentiment {
		r.Sentiment[i].Score = clamp(r.Sentiment[i].Score, 0, 100)
	}
	r.Metrics.TalkRatioPercent = clamp(r.Metrics.TalkRatioPercent, 0, 100)
}

func pickEnum(value, fallback string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return fallback
}

func riskLevelForScore(score int) string {
	switch {
	case score <= 3:
		return types.RiskLow
	case score <= 6:
		return types.RiskMedium
	case score <= 8:
		return types.RiskHigh
	default:
		return types.RiskCritical
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
