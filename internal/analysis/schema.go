package analysis

import (
	genai "google.golang.org/api/generativelanguage/v1beta"
)

// responseSchema declares the structured output contract for the provider.
// Categorical fields carry enumerated value sets; parsing is still lenient
// about out-of-enum values (see coerce in client.go).
func responseSchema() *genai.Schema {
	timecode := genai.Schema{Type: "STRING", Description: "Offset into the call, MM:SS or HH:MM:SS"}
	stringList := genai.Schema{Type: "ARRAY", Items: &genai.Schema{Type: "STRING"}}

	return &genai.Schema{
		Type: "OBJECT",
		Properties: map[string]genai.Schema{
			"callType": {
				Type: "STRING",
				Enum: []string{"discovery", "demo", "negotiation", "closing", "renewal", "other"},
			},
			"summary": {Type: "STRING"},
			"topics":  stringList,
			"verdict": {Type: "STRING", Description: "One-line verdict on the call"},
			"transcript": {
				Type: "ARRAY",
				Items: &genai.Schema{
					Type: "OBJECT",
					Properties: map[string]genai.Schema{
						"speaker":   {Type: "STRING", Description: "Inferred speaker role, localized"},
						"text":      {Type: "STRING"},
						"startTime": timecode,
						"endTime":   timecode,
					},
					Required: []string{"speaker", "text", "startTime"},
				},
			},
			"sentimentTimeline": {
				Type: "ARRAY",
				Items: &genai.Schema{
					Type: "OBJECT",
					Properties: map[string]genai.Schema{
						"timePoint": timecode,
						"score":     {Type: "INTEGER", Description: "0-100"},
						"context":   {Type: "STRING"},
					},
					Required: []string{"timePoint", "score", "context"},
				},
				MinItems: 10,
				MaxItems: 15,
			},
			"coaching": {
				Type: "OBJECT",
				Properties: map[string]genai.Schema{
					"strengths":    {Type: "ARRAY", Items: &genai.Schema{Type: "STRING"}, MinItems: 3, MaxItems: 3},
					"improvements": {Type: "ARRAY", Items: &genai.Schema{Type: "STRING"}, MinItems: 3, MaxItems: 3},
				},
				Required: []string{"strengths", "improvements"},
			},
			"objections": {
				Type: "ARRAY",
				Items: &genai.Schema{
					Type: "OBJECT",
					Properties: map[string]genai.Schema{
						"category": {
							Type: "STRING",
							Enum: []string{"price", "timing", "authority", "need", "competitor", "other"},
						},
						"quote":     {Type: "STRING"},
						"timestamp": timecode,
						"handlingQuality": {
							Type: "STRING",
							Enum: []string{"strong", "weak", "missed"},
						},
						"suggestedRebuttal": {Type: "STRING"},
					},
					Required: []string{"category", "quote", "timestamp", "handlingQuality"},
				},
			},
			"salesMetrics": {
				Type: "OBJECT",
				Properties: map[string]genai.Schema{
					"talkRatioPercent":        {Type: "INTEGER"},
					"questionCount":           {Type: "INTEGER"},
					"fillerWordCount":         {Type: "INTEGER"},
					"longestMonologueSeconds": {Type: "NUMBER"},
					"buyingSignals":           stringList,
					"riskSignals":             stringList,
				},
				Required: []string{"talkRatioPercent", "questionCount", "fillerWordCount", "longestMonologueSeconds"},
			},
			"riskAssessment": {
				Type: "OBJECT",
				Properties: map[string]genai.Schema{
					"score": {Type: "INTEGER", Description: "1-10"},
					"level": {
						Type: "STRING",
						Enum: []string{"low", "medium", "high", "critical"},
					},
					"reasons":      stringList,
					"dealBreakers": stringList,
				},
				Required: []string{"score", "level", "reasons"},
			},
			"nextSteps": {
				Type: "OBJECT",
				Properties: map[string]genai.Schema{
					"primaryAction":      {Type: "STRING"},
					"timeline":           {Type: "STRING"},
					"secondaryActions":   stringList,
					"followUpEmailDraft": {Type: "STRING"},
				},
				Required: []string{"primaryAction", "timeline", "followUpEmailDraft"},
			},
		},
		Required: []string{
			"callType", "summary", "topics", "verdict", "transcript",
			"sentimentTimeline", "coaching", "objections", "salesMetrics",
			"riskAssessment", "nextSteps",
		},
	}
}
