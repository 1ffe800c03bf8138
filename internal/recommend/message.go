package recommend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hpkotak/giftbud/internal/provider"
)

// UserMessage renders err for display. Provider failures carry a stable
// [CODE] marker and a remedy; other errors are returned as-is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var pe *provider.Error
	if !errors.As(err, &pe) {
		return err.Error()
	}

	var msg string
	switch pe.Kind {
	case provider.KindConfig:
		msg = "API key is missing or invalid. Run `giftbud setup` or set GIFTBUD_API_KEY."
	case provider.KindAuth:
		msg = "The API key was rejected. Check that it is correct and still active."
	case provider.KindBilling:
		msg = "The account has no remaining credit. Check billing with the provider."
	case provider.KindRateLimit:
		msg = "Too many requests. Wait a moment and try again."
	case provider.KindUpstreamUnavailable:
		msg = "The AI service is temporarily unavailable. Try again later."
	case provider.KindEmptyResponse:
		msg = "The AI service returned an empty answer. Try again."
	case provider.KindNetwork:
		msg = "Could not reach the AI service. Check your internet connection."
	default:
		msg = "The AI service returned an error."
	}

	detail := pe.Message
	if pe.Kind == provider.KindAPI && pe.StatusCode != 0 {
		detail = strings.TrimSuffix(fmt.Sprintf("%d: %s", pe.StatusCode, pe.Message), ": ")
	}
	if detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, detail)
	}
	return fmt.Sprintf("[%s] %s", pe.Kind.Code(), msg)
}
