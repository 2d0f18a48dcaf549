package transcript

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/callsight/call-analysis/internal/types"
)

// ParseTimecode converts a "MM:SS" or "HH:MM:SS" string to seconds.
// Malformed input yields 0 rather than an error: timestamps come from an
// untrusted generative source and a bad one must not break the view.
func ParseTimecode(tc string) float64 {
	parts := strings.Split(strings.TrimSpace(tc), ":")

	switch len(parts) {
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		s, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0
		}
		return float64(m*60 + s)
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		s, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0
		}
		return float64(h*3600 + m*60 + s)
	default:
		return 0
	}
}

// ActiveIndex returns the index of the last segment whose start time is at
// or before the current playback time, or -1 if no segment qualifies.
// Scans from the end so out-of-order timestamps degrade gracefully.
func ActiveIndex(segments []types.TranscriptSegment, currentSeconds float64) int {
	for i := len(segments) - 1; i >= 0; i-- {
		if ParseTimecode(segments[i].StartTime) <= currentSeconds {
			return i
		}
	}
	return -1
}

// ActiveSegment returns the active segment itself, or nil.
func ActiveSegment(segments []types.TranscriptSegment, currentSeconds float64) *types.TranscriptSegment {
	if i := ActiveIndex(segments, currentSeconds); i >= 0 {
		return &segments[i]
	}
	return nil
}

// Search filters segments by a case-insensitive substring match against
// both speaker label and utterance text. Order is preserved. A blank query
// returns the input unchanged.
func Search(segments []types.TranscriptSegment, query string) []types.TranscriptSegment {
	q := strings.TrimSpace(query)
	if q == "" {
		return segments
	}

	q = strings.ToLower(q)
	var matched []types.TranscriptSegment
	for _, seg := range segments {
		if strings.Contains(strings.ToLower(seg.Text), q) ||
			strings.Contains(strings.ToLower(seg.Speaker), q) {
			matched = append(matched, seg)
		}
	}
	return matched
}

// Span marks one highlighted byte range within a segment's text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Highlight returns the byte ranges of every case-insensitive occurrence
// of query within text. The query is quoted before compiling, so regex
// metacharacters ("3+1", "a.b") match literally.
func Highlight(text, query string) []Span {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
	var spans []Span
	for _, loc := range re.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}
