// Package expert implements the interactive Q&A subsystem: intent
// classification of follow-up questions and handlers that answer them
// grounded in the current translation context.
package expert

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent types, most specific first.
const (
	IntentModification     = "translation_modification"
	IntentAnalysisInquiry  = "analysis_inquiry"
	IntentLinguistic       = "linguistic_question"
	IntentContextVariation = "context_variation"
	IntentComparison       = "comparison_analysis"
	IntentGeneral          = "general_expert"
)

// Intent is the classified reading of a user question.
type Intent struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`

	// TargetNumber and TargetStyle are set for translation_modification.
	TargetNumber int    `json:"target_number,omitempty"`
	TargetStyle  string `json:"target_style,omitempty"`
}

// targetNumberPattern finds a candidate reference (1/2/3, ASCII or
// full-width).
var targetNumberPattern = regexp.MustCompile(`[1-3１-３]`)

// styleKeywords map style words in the supported languages to a canonical
// style tag.
var styleKeywords = map[string]string{
	"casual":         "casual",
	"カジュアル":          "casual",
	"くだけた":           "casual",
	"formal":         "formal",
	"フォーマル":          "formal",
	"丁寧":             "polite",
	"polite":         "polite",
	"business":       "business",
	"ビジネス":           "business",
	"friendly":       "friendly",
	"親しみ":            "friendly",
	"conversational": "conversational",
	"口語":             "conversational",
}

var analysisKeywords = []string{
	"analysis", "why", "reason", "recommend", "chatgpt", "gemini", "claude",
	"分析", "なぜ", "理由", "推薦", "おすすめ",
}

var linguisticKeywords = []string{
	"grammar", "conjugation", "synonym", "tense", "structure", "particle", "verb",
	"文法", "活用", "同義語", "類義語", "構造", "助詞", "敬語",
}

var variationKeywords = []string{
	"if angry", "as a friend", "in business", "what if", "in a formal setting",
	"もし", "友達に", "怒って", "上司に", "場合は",
}

var comparisonKeywords = []string{
	"compare", "difference", "differences", "versus", "vs", "which is", "better than",
	"比較", "違い", "どちら", "どれが",
}

// ClassifyIntent tags a question. Modification intent requires both a
// candidate number and a style keyword; the remaining intents are keyword
// driven with a general fallback.
func ClassifyIntent(question string) Intent {
	lower := strings.ToLower(question)

	if num := targetNumberPattern.FindString(question); num != "" {
		if style := findStyle(lower); style != "" {
			return Intent{
				Type:         IntentModification,
				Confidence:   0.9,
				TargetNumber: parseTargetNumber(num),
				TargetStyle:  style,
			}
		}
	}

	switch {
	case containsAny(lower, analysisKeywords):
		return Intent{Type: IntentAnalysisInquiry, Confidence: 0.8}
	case containsAny(lower, linguisticKeywords):
		return Intent{Type: IntentLinguistic, Confidence: 0.8}
	case containsAny(lower, comparisonKeywords):
		return Intent{Type: IntentComparison, Confidence: 0.8}
	case containsAny(lower, variationKeywords):
		return Intent{Type: IntentContextVariation, Confidence: 0.7}
	default:
		return Intent{Type: IntentGeneral, Confidence: 0.5}
	}
}

func findStyle(lower string) string {
	for keyword, style := range styleKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return style
		}
	}
	return ""
}

func parseTargetNumber(s string) int {
	switch s {
	case "１":
		return 1
	case "２":
		return 2
	case "３":
		return 3
	}
	n, _ := strconv.Atoi(s)
	return n
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
