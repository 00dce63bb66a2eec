package expert

import "strings"

// Answer and question caps, in runes.
const (
	MaxAnswerLen   = 2500
	MaxQuestionLen = 1000

	// sentenceLookback is how far back from the cut a sentence boundary is
	// searched for.
	sentenceLookback = 200
)

// truncationMarkers per display language.
var truncationMarkers = map[string]string{
	"jp": "\n\n[応答が長いため省略されました]",
	"en": "\n\n[response truncated]",
	"fr": "\n\n[réponse tronquée]",
	"es": "\n\n[respuesta truncada]",
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// TruncateAnswer caps an answer at 2,500 runes, cutting at the last
// sentence-ending punctuation within the lookback window and appending a
// localized marker. The returned string never exceeds the cap.
func TruncateAnswer(answer, displayLang string) string {
	runes := []rune(answer)
	if len(runes) <= MaxAnswerLen {
		return answer
	}

	marker, ok := truncationMarkers[displayLang]
	if !ok {
		marker = truncationMarkers["en"]
	}

	budget := MaxAnswerLen - len([]rune(marker))
	cut := budget
	for i := budget - 1; i >= budget-sentenceLookback && i >= 0; i-- {
		if sentenceEnders[runes[i]] {
			cut = i + 1
			break
		}
	}

	return strings.TrimRight(string(runes[:cut]), " \n") + marker
}

// TruncateQuestion caps the recorded question at 1,000 runes.
func TruncateQuestion(question string) string {
	runes := []rune(question)
	if len(runes) <= MaxQuestionLen {
		return question
	}
	return string(runes[:MaxQuestionLen])
}
