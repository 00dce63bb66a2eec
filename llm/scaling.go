package llm

import "time"

// Prompt-length thresholds for the timeout and token ladders. Lengths are in
// runes so multi-byte scripts scale the same as ASCII.
const (
	truncateThreshold = 8000
	truncateHead      = 4000
	truncateTail      = 4000
)

// elisionMarker is inserted between the preserved head and tail of a
// truncated prompt.
const elisionMarker = "\n...[cut]...\n"

// ScaleTimeout returns the per-call deadline for a prompt of the given length.
func ScaleTimeout(promptLen int) time.Duration {
	switch {
	case promptLen < 1500:
		return 60 * time.Second
	case promptLen < 3000:
		return 90 * time.Second
	case promptLen < 4000:
		return 120 * time.Second
	default:
		return 180 * time.Second
	}
}

// ScaleMaxTokens returns the response token budget for a prompt of the given
// length.
func ScaleMaxTokens(promptLen int) int {
	switch {
	case promptLen <= 1000:
		return 400
	case promptLen <= 2000:
		return 600
	case promptLen <= 4000:
		return 1000
	default:
		return 1500
	}
}

// TruncatePrompt shortens prompts of 8,000+ runes with a head+tail strategy:
// the first and last 4,000 runes are preserved around an elision marker.
// Callers apply this before Complete; the client itself never truncates.
func TruncatePrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) < truncateThreshold {
		return prompt
	}
	return string(runes[:truncateHead]) + elisionMarker + string(runes[len(runes)-truncateTail:])
}
