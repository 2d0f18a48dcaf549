package types

import "time"

// Pipeline state constants
const (
	StateIdle      = "IDLE"
	StateUploading = "UPLOADING"
	StateAnalyzing = "ANALYZING"
	StateSuccess   = "SUCCESS"
	StateError     = "ERROR"
)

// Call type values reported by the provider
const (
	CallDiscovery   = "discovery"
	CallDemo        = "demo"
	CallNegotiation = "negotiation"
	CallClosing     = "closing"
	CallRenewal     = "renewal"
	CallOther       = "other"
)

// Objection categories
const (
	ObjectionPrice      = "price"
	ObjectionTiming     = "timing"
	ObjectionAuthority  = "authority"
	ObjectionNeed       = "need"
	ObjectionCompetitor = "competitor"
	ObjectionOther      = "other"
)

// Objection handling quality
const (
	HandlingStrong = "strong"
	HandlingWeak   = "weak"
	HandlingMissed = "missed"
)

// Risk levels
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// TranscriptSegment is one speaker turn. Timestamps are "MM:SS" or
// "HH:MM:SS" strings produced by the provider and are not guaranteed
// monotonic.
type TranscriptSegment struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
}

// SentimentPoint is one checkpoint on the sentiment timeline. Insertion
// order is the temporal order.
type SentimentPoint struct {
	TimePoint string `json:"timePoint"`
	Score     int    `json:"score"` // 0-100
	Context   string `json:"context"`
}

// CoachingData holds coaching feedback, three strengths and three
// improvements by convention.
type CoachingData struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Objection is a detected buyer objection with a handling rating.
type Objection struct {
	Category          string `json:"category"`
	Quote             string `json:"quote"`
	Timestamp         string `json:"timestamp"`
	HandlingQuality   string `json:"handlingQuality"`
	SuggestedRebuttal string `json:"suggestedRebuttal,omitempty"`
}

// SalesMetrics are quantitative call statistics.
type SalesMetrics struct {
	TalkRatioPercent        int      `json:"talkRatioPercent"`
	QuestionCount           int      `json:"questionCount"`
	FillerWordCount         int      `json:"fillerWordCount"`
	LongestMonologueSeconds float64  `json:"longestMonologueSeconds"`
	BuyingSignals           []string `json:"buyingSignals"`
	RiskSignals             []string `json:"riskSignals"`
}

// RiskAssessment is the composite deal-risk verdict.
type RiskAssessment struct {
	Score        int      `json:"score"` // 1-10
	Level        string   `json:"level"`
	Reasons      []string `json:"reasons"`
	DealBreakers []string `json:"dealBreakers"`
}

// NextSteps is the recommended follow-up plan.
type NextSteps struct {
	PrimaryAction      string   `json:"primaryAction"`
	Timeline           string   `json:"timeline"`
	SecondaryActions   []string `json:"secondaryActions"`
	FollowUpEmailDraft string   `json:"followUpEmailDraft"`
}

// AnalysisResult is the full structured output of one provider call.
// Immutable once parsed; the controller only ever replaces it wholesale.
type AnalysisResult struct {
	CallType       string              `json:"callType"`
	Summary        string              `json:"summary"`
	Topics         []string            `json:"topics"`
	Verdict        string              `json:"verdict"`
	Transcript     []TranscriptSegment `json:"transcript"`
	Sentiment      []SentimentPoint    `json:"sentimentTimeline"`
	Coaching       CoachingData        `json:"coaching"`
	Objections     []Objection         `json:"objections"`
	Metrics        SalesMetrics        `json:"salesMetrics"`
	RiskAssessment RiskAssessment      `json:"riskAssessment"`
	NextSteps      NextSteps           `json:"nextSteps"`
}

// Session is one completed analysis bound to a source file.
type Session struct {
	ID            string          `json:"id"`
	Fingerprint   string          `json:"fingerprint"`
	FileName      string          `json:"fileName"`
	DurationLabel string          `json:"durationLabel"`
	AudioPath     string          `json:"audioPath,omitempty"`
	AudioURL      string          `json:"audioUrl,omitempty"`
	RemoteURL     string          `json:"remoteUrl,omitempty"`
	Result        *AnalysisResult `json:"result"`
	CreatedAt     time.Time       `json:"createdAt"`
}
