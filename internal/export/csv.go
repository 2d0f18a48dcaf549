package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/callsight/call-analysis/internal/types"
)

// WriteTranscriptCSV writes the transcript-only export: one row per
// speaker turn.
func WriteTranscriptCSV(w io.Writer, result *types.AnalysisResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"speaker", "start", "end", "text"}); err != nil {
		return err
	}
	for _, seg := range result.Transcript {
		if err := cw.Write([]string{seg.Speaker, seg.StartTime, seg.EndTime, seg.Text}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAnalysisCSV writes the full-analysis export: the structured result
// flattened into section/field/value rows. One-way and write-only; there
// is no import path.
func WriteAnalysisCSV(w io.Writer, result *types.AnalysisResult) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"section", "field", "value"},
		{"summary", "callType", result.CallType},
		{"summary", "summary", result.Summary},
		{"summary", "verdict", result.Verdict},
		{"summary", "topics", strings.Join(result.Topics, "; ")},
	}

	for i, s := range result.Coaching.Strengths {
		rows = append(rows, []string{"coaching", fmt.Sprintf("strength %d", i+1), s})
	}
	for i, s := range result.Coaching.Improvements {
		rows = append(rows, []string{"coaching", fmt.Sprintf("improvement %d", i+1), s})
	}

	m := result.Metrics
	rows = append(rows,
		[]string{"metrics", "talkRatioPercent", fmt.Sprintf("%d", m.TalkRatioPercent)},
		[]string{"metrics", "questionCount", fmt.Sprintf("%d", m.QuestionCount)},
		[]string{"metrics", "fillerWordCount", fmt.Sprintf("%d", m.FillerWordCount)},
		[]string{"metrics", "longestMonologueSeconds", fmt.Sprintf("%g", m.LongestMonologueSeconds)},
		[]string{"metrics", "buyingSignals", strings.Join(m.BuyingSignals, "; ")},
		[]string{"metrics", "riskSignals", strings.Join(m.RiskSignals, "; ")},
	)

	for i, o := range result.Objections {
		prefix := fmt.Sprintf("objection %d", i+1)
		rows = append(rows,
			[]string{"objections", prefix + " category", o.Category},
			[]string{"objections", prefix + " quote", o.Quote},
			[]string{"objections", prefix + " timestamp", o.Timestamp},
			[]string{"objections", prefix + " handling", o.HandlingQuality},
		)
		if o.SuggestedRebuttal != "" {
			rows = append(rows, []string{"objections", prefix + " rebuttal", o.SuggestedRebuttal})
		}
	}

	r := result.RiskAssessment
	rows = append(rows,
		[]string{"risk", "score", fmt.Sprintf("%d", r.Score)},
		[]string{"risk", "level", r.Level},
		[]string{"risk", "reasons", strings.Join(r.Reasons, "; ")},
		[]string{"risk", "dealBreakers", strings.Join(r.DealBreakers, "; ")},
	)

	n := result.NextSteps
	rows = append(rows,
		[]string{"nextSteps", "primaryAction", n.PrimaryAction},
		[]string{"nextSteps", "timeline", n.Timeline},
		[]string{"nextSteps", "secondaryActions", strings.Join(n.SecondaryActions, "; ")},
		[]string{"nextSteps", "followUpEmailDraft", n.FollowUpEmailDraft},
	)

	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
