package ai

import (
	"reflect"
	"testing"

	"prepmate/internal/types"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Tell Me About Yourself", "tell me about yourself"},
		{"strips punctuation", "Tell me about yourself.", "tell me about yourself"},
		{"collapses whitespace", "  Tell   me\tabout\nyourself ", "tell me about yourself"},
		{"mixed", "  What's your  BIGGEST win?! ", "whats your biggest win"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.input); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanQuestionText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Why this company?", "Why this company?"},
		{"numbered", "1. Why this company?", "Why this company?"},
		{"parenthesized number", "(2) Why this company?", "Why this company?"},
		{"question label", "Q3: Why this company?", "Why this company?"},
		{"bullet", "- Why this company?", "Why this company?"},
		{"internal whitespace", "Why   this \n company?", "Why this company?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanQuestionText(tt.input); got != tt.want {
				t.Errorf("cleanQuestionText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsBannedQuestion(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"What are your strengths and weaknesses?", true},
		{"What is your greatest strength?", true},
		{"Where do you see yourself in 5 years?", true},
		{"Where do you see yourself in five years?", true},
		{"Tell me about your five-year plan.", true},
		{"What are your salary expectations?", true},
		{"What are your compensation requirements?", true},
		{"Tell me about yourself.", false},
		{"Describe a difficult bug you debugged.", false},
		{"How do you handle pressure?", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsBannedQuestion(tt.text); got != tt.want {
				t.Errorf("IsBannedQuestion(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeQuestionsKeepsValidModelOutput(t *testing.T) {
	raw := []RawQuestion{
		{Text: "Introduce yourself briefly.", Category: "HR"},
		{Text: "How would you design a URL shortener?", Category: "Technical"},
		{Text: "Why do you want to join Google?", Category: "HR"},
		{Text: "Explain how database indexes work.", Category: "Technical"},
		{Text: "Describe a conflict you resolved.", Category: "HR"},
	}

	questions := NormalizeQuestions(raw, fallbackTestConfig, 1700000000000)

	if len(questions) != types.QuestionsPerSession {
		t.Fatalf("expected %d questions, got %d", types.QuestionsPerSession, len(questions))
	}

	// Slot 1 of a mixed interview is HR, so the opener replaces whatever
	// the model produced there.
	if questions[0].Text != OpeningQuestion {
		t.Errorf("expected opener %q, got %q", OpeningQuestion, questions[0].Text)
	}

	// The remaining valid model questions survive untouched
	for i := 1; i < len(raw); i++ {
		if questions[i].Text != raw[i].Text {
			t.Errorf("slot %d: expected model text %q, got %q", i, raw[i].Text, questions[i].Text)
		}
	}

	plan := types.CategoryPlan(fallbackTestConfig.Type)
	for i, q := range questions {
		if q.Category != plan[i] {
			t.Errorf("slot %d: expected category %s, got %s", i, plan[i], q.Category)
		}
	}
}

func TestNormalizeQuestionsReplacesBadEntries(t *testing.T) {
	tests := []struct {
		name string
		raw  []RawQuestion
	}{
		{
			name: "banned question",
			raw: []RawQuestion{
				{Text: "Intro."},
				{Text: "What are your strengths and weaknesses?"},
				{Text: "Why this company?"},
				{Text: "Explain caching."},
				{Text: "Describe a conflict."},
			},
		},
		{
			name: "empty entry",
			raw: []RawQuestion{
				{Text: "Intro."},
				{Text: "   "},
				{Text: "Why this company?"},
				{Text: "Explain caching."},
				{Text: "Describe a conflict."},
			},
		},
		{
			name: "duplicate entry",
			raw: []RawQuestion{
				{Text: "Intro."},
				{Text: "Why this company?"},
				{Text: "Why this company?!"},
				{Text: "Explain caching."},
				{Text: "Describe a conflict."},
			},
		},
		{
			name: "too few entries",
			raw: []RawQuestion{
				{Text: "Intro."},
				{Text: "Why this company?"},
			},
		},
		{
			name: "nil input",
			raw:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions := NormalizeQuestions(tt.raw, fallbackTestConfig, 1700000000000)

			if len(questions) != types.QuestionsPerSession {
				t.Fatalf("expected %d questions, got %d", types.QuestionsPerSession, len(questions))
			}

			seen := make(map[string]bool)
			for i, q := range questions {
				if q.Text == "" {
					t.Errorf("slot %d is empty after normalization", i)
				}
				if IsBannedQuestion(q.Text) {
					t.Errorf("slot %d still banned after normalization: %q", i, q.Text)
				}
				canonical := Canonicalize(q.Text)
				if seen[canonical] {
					t.Errorf("duplicate survived normalization: %q", q.Text)
				}
				seen[canonical] = true
			}
		})
	}
}

func TestNormalizeEvaluationDefaults(t *testing.T) {
	result := NormalizeEvaluation(map[string]any{})

	if result.Relevance != defaultMetricScore ||
		result.Clarity != defaultMetricScore ||
		result.Confidence != defaultMetricScore ||
		result.TechnicalDepth != defaultMetricScore {
		t.Errorf("expected all metrics to default to %d, got %+v", defaultMetricScore, result)
	}
	if result.OverallScore != defaultOverallScore {
		t.Errorf("expected overall %d, got %d", defaultOverallScore, result.OverallScore)
	}
	if result.Sentiment != defaultSentiment {
		t.Errorf("expected sentiment %q, got %q", defaultSentiment, result.Sentiment)
	}
	if result.Feedback != defaultFeedback {
		t.Errorf("expected default feedback, got %q", result.Feedback)
	}
	if !reflect.DeepEqual(result.ImprovementTips, defaultImprovementTips) {
		t.Errorf("expected default tips, got %v", result.ImprovementTips)
	}
}

func TestNormalizeEvaluationCoercion(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want types.EvaluationResult
	}{
		{
			name: "clamps out-of-range scores",
			raw: map[string]any{
				"relevance":       float64(14),
				"clarity":         float64(0),
				"confidence":      float64(-3),
				"technical_depth": float64(7),
				"overall_score":   float64(250),
				"sentiment":       "positive",
				"feedback":        "Strong answer.",
				"improvement_tips": []any{
					"Tip one.", "Tip two.", "Tip three.",
				},
			},
			want: types.EvaluationResult{
				Relevance: 10, Clarity: 1, Confidence: 1, TechnicalDepth: 7,
				OverallScore: 100, Sentiment: "positive", Feedback: "Strong answer.",
				ImprovementTips: []string{"Tip one.", "Tip two.", "Tip three."},
			},
		},
		{
			name: "parses numeric strings",
			raw: map[string]any{
				"relevance":     "8",
				"overall_score": " 72 ",
			},
			want: types.EvaluationResult{
				Relevance: 8, Clarity: defaultMetricScore, Confidence: defaultMetricScore,
				TechnicalDepth: defaultMetricScore, OverallScore: 72,
				Sentiment: defaultSentiment, Feedback: defaultFeedback,
				ImprovementTips: defaultImprovementTips,
			},
		},
		{
			name: "truncates extra tips",
			raw: map[string]any{
				"improvement_tips": []any{"one", "two", "three", "four", "five"},
			},
			want: types.EvaluationResult{
				Relevance: defaultMetricScore, Clarity: defaultMetricScore,
				Confidence: defaultMetricScore, TechnicalDepth: defaultMetricScore,
				OverallScore: defaultOverallScore, Sentiment: defaultSentiment,
				Feedback:        defaultFeedback,
				ImprovementTips: []string{"one", "two", "three"},
			},
		},
		{
			name: "pads missing tips in order",
			raw: map[string]any{
				"improvement_tips": []any{"only tip"},
			},
			want: types.EvaluationResult{
				Relevance: defaultMetricScore, Clarity: defaultMetricScore,
				Confidence: defaultMetricScore, TechnicalDepth: defaultMetricScore,
				OverallScore: defaultOverallScore, Sentiment: defaultSentiment,
				Feedback: defaultFeedback,
				ImprovementTips: []string{
					"only tip", defaultImprovementTips[0], defaultImprovementTips[1],
				},
			},
		},
		{
			name: "ignores non-string tips",
			raw: map[string]any{
				"improvement_tips": []any{float64(1), "real tip", nil},
			},
			want: types.EvaluationResult{
				Relevance: defaultMetricScore, Clarity: defaultMetricScore,
				Confidence: defaultMetricScore, TechnicalDepth: defaultMetricScore,
				OverallScore: defaultOverallScore, Sentiment: defaultSentiment,
				Feedback: defaultFeedback,
				ImprovementTips: []string{
					"real tip", defaultImprovementTips[0], defaultImprovementTips[1],
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEvaluation(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeEvaluation() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEvaluationIdempotent(t *testing.T) {
	first := NormalizeEvaluation(map[string]any{
		"relevance":        float64(9),
		"clarity":          float64(8),
		"confidence":       float64(7),
		"technical_depth":  float64(6),
		"overall_score":    float64(77),
		"sentiment":        "positive",
		"feedback":         "Well structured.",
		"improvement_tips": []any{"a", "b", "c"},
	})

	tips := make([]any, len(first.ImprovementTips))
	for i, tip := range first.ImprovementTips {
		tips[i] = tip
	}
	second := NormalizeEvaluation(map[string]any{
		"relevance":        first.Relevance,
		"clarity":          first.Clarity,
		"confidence":       first.Confidence,
		"technical_depth":  first.TechnicalDepth,
		"overall_score":    first.OverallScore,
		"sentiment":        first.Sentiment,
		"feedback":         first.Feedback,
		"improvement_tips": tips,
	})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization is not idempotent: %+v vs %+v", first, second)
	}
}
