package ai

import (
	"regexp"
	"strconv"
	"strings"

	"prepmate/internal/catalog"
	"prepmate/internal/types"
)

// RawQuestion is the loosely-shaped question entry as returned by the model
type RawQuestion struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

var (
	leadingNumberingPattern = regexp.MustCompile(`^\s*(?:[-*•]+|\(?\d+[.)\]:]|[Qq]\d*[.):])\s*`)
	whitespacePattern       = regexp.MustCompile(`\s+`)
	nonAlphanumericPattern  = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// Canonicalize lowercases text and strips punctuation and whitespace
// variation so near-duplicate questions compare equal.
func Canonicalize(text string) string {
	lowered := strings.ToLower(text)
	stripped := nonAlphanumericPattern.ReplaceAllString(lowered, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(stripped, " "))
}

// cleanQuestionText strips leading numbering or bullets and collapses
// internal whitespace.
func cleanQuestionText(text string) string {
	cleaned := leadingNumberingPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))
}

// NormalizeQuestions validates raw model output against the category plan
// and returns exactly 5 well-formed questions. Empty, banned, or duplicate
// entries are replaced from the deterministic fallback pool; the opener
// rule is re-asserted for slot 1.
func NormalizeQuestions(raw []RawQuestion, cfg types.InterviewConfig, unixMillis int64) []types.Question {
	plan := types.CategoryPlan(cfg.Type)
	company := catalog.LookupCompany(cfg.Company)
	rng := newLCG(SeedFor(cfg, unixMillis))
	used := make(map[string]bool, types.QuestionsPerSession)

	questions := make([]types.Question, 0, types.QuestionsPerSession)
	for slot, category := range plan {
		var text string
		if slot == 0 && category == types.CategoryHR {
			text = OpeningQuestion
		} else {
			if slot < len(raw) {
				text = cleanQuestionText(raw[slot].Text)
			}
			if text == "" || IsBannedQuestion(text) || used[Canonicalize(text)] {
				text = pickUnique(rng, category, cfg, company, used, slot)
			}
		}
		used[Canonicalize(text)] = true
		questions = append(questions, types.Question{
			ID:       slot + 1,
			Text:     text,
			Category: category,
		})
	}
	return questions
}

const (
	defaultMetricScore  = 6
	defaultOverallScore = 65
	defaultSentiment    = "neutral"
	defaultFeedback     = "Good effort. Keep practicing with concrete examples and your answers will get sharper."
)

// NormalizeEvaluation clamps a raw evaluation-shaped object into the fixed
// schema. Every field gets a documented default when missing or invalid,
// so the result is always structurally valid. Normalizing an already
// normalized result is a no-op.
func NormalizeEvaluation(raw map[string]any) types.EvaluationResult {
	result := types.EvaluationResult{
		Relevance:      coerceScore(raw["relevance"], defaultMetricScore, 1, 10),
		Clarity:        coerceScore(raw["clarity"], defaultMetricScore, 1, 10),
		Confidence:     coerceScore(raw["confidence"], defaultMetricScore, 1, 10),
		TechnicalDepth: coerceScore(raw["technical_depth"], defaultMetricScore, 1, 10),
		OverallScore:   coerceScore(raw["overall_score"], defaultOverallScore, 1, 100),
	}

	result.Sentiment = coerceText(raw["sentiment"], defaultSentiment)
	result.Feedback = coerceText(raw["feedback"], defaultFeedback)
	result.ImprovementTips = normalizeTips(raw["improvement_tips"])

	return result
}

// normalizeTips truncates or pads the tips to exactly 3 non-empty strings,
// backfilling in order from the fixed default list.
func normalizeTips(raw any) []string {
	tips := make([]string, 0, 3)

	if list, ok := raw.([]any); ok {
		for _, entry := range list {
			if len(tips) == 3 {
				break
			}
			if text, ok := entry.(string); ok {
				if trimmed := strings.TrimSpace(text); trimmed != "" {
					tips = append(tips, trimmed)
				}
			}
		}
	} else if list, ok := raw.([]string); ok {
		for _, text := range list {
			if len(tips) == 3 {
				break
			}
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				tips = append(tips, trimmed)
			}
		}
	}

	for _, fallbackTip := range defaultImprovementTips {
		if len(tips) == 3 {
			break
		}
		tips = append(tips, fallbackTip)
	}
	return tips
}

// coerceScore converts a JSON-decoded value to an int clamped to
// [minimum, maximum], using def when the value is missing or non-numeric.
func coerceScore(raw any, def, minimum, maximum int) int {
	value := def
	switch v := raw.(type) {
	case float64:
		value = int(v)
	case float32:
		value = int(v)
	case int:
		value = v
	case int64:
		value = int(v)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			value = int(parsed)
		}
	}

	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}

// coerceText returns the trimmed string value or def when blank/non-string
func coerceText(raw any, def string) string {
	if text, ok := raw.(string); ok {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return def
}
