package controller

import (
	"errors"

	"github.com/callsight/call-analysis/internal/analysis"
	"github.com/callsight/call-analysis/internal/audio"
)

// UserMessage maps a pipeline failure to the sentence shown to the user.
// Each provider failure kind gets its own message; a malformed provider
// reply is deliberately surfaced as the generic analysis failure.
func UserMessage(err error) string {
	var ufe *audio.UnsupportedFormatError
	if errors.As(err, &ufe) {
		return "This file could not be decoded as audio. Please choose a supported recording format."
	}

	var ee *audio.EncodingError
	if errors.As(err, &ee) {
		return "The file could not be read. Please reselect the recording and try again."
	}

	var pe *analysis.ProviderError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case analysis.ProviderTooLarge:
			return "The recording is too large for analysis. Try a shorter or more compressed file."
		case analysis.ProviderRateLimited:
			return "The analysis service is handling too many requests right now. Wait a moment and try again."
		case analysis.ProviderUnsupportedMedia:
			return "The analysis service does not support this audio format."
		case analysis.ProviderContentFiltered:
			return "The analysis service declined to process this recording's content."
		default:
			return "Call analysis failed. Please try again."
		}
	}

	var mre *analysis.MalformedResponseError
	if errors.As(err, &mre) {
		return "Call analysis failed. Please try again."
	}

	return "Something went wrong. Please try again."
}
