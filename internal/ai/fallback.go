package ai

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"prepmate/internal/catalog"
	"prepmate/internal/types"
)

// lcg is a linear-congruential pseudo-random source. Deterministic given
// its seed, so fallback output is reproducible in tests while still
// varying between requests.
type lcg struct {
	seed uint32
}

func newLCG(seed uint32) *lcg {
	return &lcg{seed: seed}
}

// next advances the generator: seed = seed*1664525 + 1013904223 mod 2^32
func (r *lcg) next() uint32 {
	r.seed = r.seed*1664525 + 1013904223
	return r.seed
}

// pick returns a pseudo-random index in [0, n)
func (r *lcg) pick(n int) int {
	return int(r.next() % uint32(n))
}

// SeedFor derives the fallback seed from the interview config and a
// caller-supplied timestamp. Repeated fallbacks in one session differ
// (the timestamp advances) but a fixed timestamp reproduces the exact
// question sequence.
func SeedFor(cfg types.InterviewConfig, unixMillis int64) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d",
		cfg.Company, cfg.Role, cfg.Experience, cfg.Difficulty, cfg.Type, unixMillis)
	return h.Sum32()
}

// questionTemplate builds one pool question from the interview context
type questionTemplate func(cfg types.InterviewConfig, company catalog.CompanyProfile) string

var hrPool = []questionTemplate{
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return fmt.Sprintf("Why do you want to work at %s as a %s?", c.Name, cfg.Role)
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Describe a time you disagreed with a teammate. How did you resolve it?"
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Tell me about a challenge you faced recently and how you handled it."
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return fmt.Sprintf("What do you know about %s and what attracts you to its work in %s?", c.Name, c.Domain)
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Describe a situation where you had to learn something new quickly. What was your approach?"
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Tell me about a time you received difficult feedback. What did you do with it?"
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return fmt.Sprintf("How do you prioritize your work when everything feels urgent in a %s role?", cfg.Role)
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Describe a project you are proud of. What was your specific contribution?"
	},
}

var technicalPool = []questionTemplate{
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return fmt.Sprintf("Walk me through how you would design a system relevant to %s work at the %s level.", cfg.Role, cfg.Difficulty)
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return fmt.Sprintf("What tools and technologies do you rely on most as a %s, and why?", cfg.Role)
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Describe a difficult bug you debugged. How did you narrow it down?"
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "How do you decide what to test, and what does good test coverage mean to you?"
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return fmt.Sprintf("Explain a technical concept from %s work to someone outside the field.", cfg.Role)
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Tell me about a performance problem you diagnosed. What did you measure first?"
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return fmt.Sprintf("How would you approach scaling a service under sudden load growth in %s?", c.Domain)
	},
	func(cfg types.InterviewConfig, c catalog.CompanyProfile) string {
		return "Describe a technical decision you made that you later changed your mind about."
	},
}

// FallbackQuestions manufactures a structurally valid 5-question set
// without any network call. Selection is seeded, non-repeating within the
// set (by canonicalized text), and the opener rule is enforced.
func FallbackQuestions(cfg types.InterviewConfig, unixMillis int64) []types.Question {
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
			text = pickUnique(rng, category, cfg, company, used, slot)
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

// pickUnique draws from the category's pool until it finds a question not
// yet used in this set. A full pass without success means the pool is
// exhausted, so a templated question is synthesized instead.
func pickUnique(rng *lcg, category types.Category, cfg types.InterviewConfig, company catalog.CompanyProfile, used map[string]bool, slot int) string {
	pool := hrPool
	if category == types.CategoryTechnical {
		pool = technicalPool
	}

	for range pool {
		candidate := pool[rng.pick(len(pool))](cfg, company)
		if !used[Canonicalize(candidate)] {
			return candidate
		}
	}

	return fmt.Sprintf("As a %s candidate interviewing at %s, how would you approach a %s-level problem in your day-to-day work? (part %d)",
		cfg.Role, company.Name, cfg.Difficulty, slot+1)
}

// technicalDepthKeywords is the fixed keyword set that earns the
// heuristic technical-depth bonus
var technicalDepthKeywords = []string{
	"system", "design", "api", "database", "algorithm", "testing", "debug",
	"performance", "cache", "latency", "deploy", "monitor", "scalability",
}

var profanityPattern = regexp.MustCompile(`(?i)\b(fuck\w*|shit\w*|bitch|asshole|bastard|damn)\b`)

// defaultImprovementTips backs both the heuristic evaluation and the
// normalizer's padding, in this order
var defaultImprovementTips = []string{
	"Structure your answers with the STAR method: Situation, Task, Action, Result.",
	"Frame each example around the specific role you are interviewing for.",
	"Include at least one measurable metric or concrete outcome.",
}

// FallbackEvaluation computes heuristic scores from the raw answer text
// when the model is unavailable. reason names why the fallback ran; it is
// echoed in the feedback so the user knows automatic scoring was used.
func FallbackEvaluation(answer, role, reason string) types.EvaluationResult {
	trimmed := strings.TrimSpace(answer)

	// One point per ~40 characters on top of a floor of 3, bounded [4,10]
	base := 3 + len(trimmed)/40
	if base < 4 {
		base = 4
	}
	if base > 10 {
		base = 10
	}

	lowered := strings.ToLower(trimmed)
	technicalDepth := base
	for _, keyword := range technicalDepthKeywords {
		if strings.Contains(lowered, keyword) {
			technicalDepth = base + 2
			break
		}
	}
	if technicalDepth > 10 {
		technicalDepth = 10
	}

	sentiment := "neutral"
	profane := profanityPattern.MatchString(trimmed)
	if profane {
		sentiment = "negative"
	}

	sum := base + base + base + technicalDepth
	overall := int(math.Round(float64(sum) / 40.0 * 100.0))
	if profane {
		overall -= 25
	}
	if overall < 1 {
		overall = 1
	}
	if overall > 100 {
		overall = 100
	}

	feedback := fmt.Sprintf(
		"Automatic scoring is active because the AI evaluator was unavailable (%s). "+
			"Your answer was scored on length and technical vocabulary for the %s role; "+
			"treat these numbers as a rough guide and keep practicing.",
		reason, role)

	tips := make([]string, len(defaultImprovementTips))
	copy(tips, defaultImprovementTips)

	return types.EvaluationResult{
		Relevance:       base,
		Clarity:         base,
		Confidence:      base,
		TechnicalDepth:  technicalDepth,
		OverallScore:    overall,
		Sentiment:       sentiment,
		Feedback:        feedback,
		ImprovementTips: tips,
	}
}

// chatFallbackReplies are the offline practice-chat responses
var chatFallbackReplies = []string{
	"I'm running in offline mode right now, but here's a tip: rehearse your opening answer out loud until it takes under two minutes.",
	"I can't reach the AI coach at the moment. While you wait, try restructuring your last answer with the STAR method.",
	"Offline mode is active. A good exercise: pick one project and prepare a 90-second story with a measurable result.",
	"The AI coach is unavailable. Meanwhile, practice pausing for a breath before each answer; it reads as confidence.",
}

// FallbackChat returns a deterministic offline reply keyed on the message
func FallbackChat(message string) string {
	h := fnv.New32a()
	h.Write([]byte(message))
	rng := newLCG(h.Sum32())
	return chatFallbackReplies[rng.pick(len(chatFallbackReplies))]
}
