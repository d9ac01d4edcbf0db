package ai

import (
	"fmt"
	"regexp"
	"strings"

	"prepmate/internal/catalog"
	"prepmate/internal/types"
)

// OpeningQuestion is the mandatory first question whenever slot 1 of the
// category plan is HR. It overrides both model output and fallback picks.
const OpeningQuestion = "Tell me about yourself."

// bannedQuestionPatterns rejects the generic interview cliches we never
// want in a session. The same list drives both the prompt instructions
// and the normalizer, so the two sides stay in agreement.
var bannedQuestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)strengths?\s+and\s+weakness`),
	regexp.MustCompile(`(?i)(greatest|biggest)\s+(strength|weakness)`),
	regexp.MustCompile(`(?i)where\s+do\s+you\s+see\s+yourself\s+in\s+(5|five)\s+years?`),
	regexp.MustCompile(`(?i)(5|five)[- ]year\s+plan`),
	regexp.MustCompile(`(?i)(salary|compensation|pay)\s+(expectation|requirement)s?`),
}

// bannedQuestionDescriptions is the human-readable form embedded in the prompt
var bannedQuestionDescriptions = []string{
	"questions about strengths and weaknesses",
	"questions about where the candidate sees themselves in 5 years or any five-year plan",
	"questions about salary, compensation, or pay expectations",
}

// IsBannedQuestion reports whether a question text matches one of the
// generic patterns the prompt forbids.
func IsBannedQuestion(text string) bool {
	for _, pattern := range bannedQuestionPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	GenerateQuestions string
	EvaluateAnswer    string
	Chat              string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	GenerateQuestions string
	EvaluateAnswer    string
	Chat              string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	GenerateQuestions: `You are a senior interviewer who designs realistic mock interviews. Your core principles are:

- Ask questions a real interviewer at the named company would ask
- Match the requested difficulty and the candidate's experience level
- Never ask generic filler questions
- Return ONLY the requested JSON structure, nothing else`,

	EvaluateAnswer: `You are an experienced interview coach who scores spoken interview answers. Your role is to:

- Judge the answer on relevance, clarity, confidence, and technical depth
- Score honestly but constructively
- Give feedback a candidate can act on in their next answer
- Return ONLY the requested JSON structure, nothing else`,

	Chat: `You are a friendly interview-preparation coach. Keep responses short, practical, and encouraging. Answer questions about interview technique, typical questions, and how to structure answers.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	GenerateQuestions: `Generate exactly %d interview questions for a mock interview.

**Candidate and role context:**
%s

**Company context:**
%s

**Required question categories, in order:**
%s

**Rules:**
1. %s
2. Avoid these generic question types entirely: %s.
3. Every question must be answerable out loud in 2-3 minutes.
4. Respond with a JSON array of exactly %d objects, each {"text": string, "category": string}, where category matches the required sequence above.`,

	EvaluateAnswer: `Score the following interview answer.

**Role:** %s (%s level, %s difficulty)

**Question:**
%s

**Candidate's spoken answer (transcribed):**
%s

Respond with a JSON object: {"relevance": 1-10, "clarity": 1-10, "confidence": 1-10, "technical_depth": 1-10, "overall_score": 1-100, "sentiment": string, "feedback": string, "improvement_tips": [exactly 3 short strings]}.`,

	Chat: `Conversation so far:
%s

Candidate's message:
%s

Reply as their interview coach.`,
}

// BuildQuestionsPrompt assembles the user prompt for question generation
// from the interview config and the catalog data. The returned string is
// sent to the model verbatim.
func BuildQuestionsPrompt(template string, cfg types.InterviewConfig) string {
	plan := types.CategoryPlan(cfg.Type)
	company := catalog.LookupCompany(cfg.Company)
	keywords := catalog.LookupRoleKeywords(cfg.Role)

	candidateContext := fmt.Sprintf(
		"Role: %s\nExperience: %s candidate%s\nDifficulty: %s (%s)",
		cfg.Role,
		cfg.Experience,
		experiencePhrase(cfg.Experience),
		cfg.Difficulty,
		difficultyPhrase(cfg.Difficulty),
	)
	candidateContext += fmt.Sprintf("\nKey competencies to probe: %s", strings.Join(keywords, ", "))

	companyContext := fmt.Sprintf(
		"Company: %s\nInterview style: %s\nDomain: %s\nWhat they prioritize: %s",
		company.Name, company.Style, company.Domain, company.Priorities,
	)

	planLines := make([]string, len(plan))
	for i, category := range plan {
		planLines[i] = fmt.Sprintf("%d. %s", i+1, category)
	}

	openerRule := "Vary the openings of the questions."
	if plan[0] == types.CategoryHR {
		openerRule = fmt.Sprintf("The first question must be exactly %q.", OpeningQuestion)
	}

	return fmt.Sprintf(template,
		types.QuestionsPerSession,
		candidateContext,
		companyContext,
		strings.Join(planLines, "\n"),
		openerRule,
		strings.Join(bannedQuestionDescriptions, "; "),
		types.QuestionsPerSession,
	)
}

// BuildEvaluatePrompt assembles the user prompt for answer evaluation
func BuildEvaluatePrompt(template, question, answer string, cfg types.InterviewConfig) string {
	return fmt.Sprintf(template, cfg.Role, cfg.Experience, cfg.Difficulty, question, answer)
}

// BuildChatPrompt assembles the user prompt for the practice chat
func BuildChatPrompt(template, message string, history []types.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	transcript := strings.Join(lines, "\n")
	if transcript == "" {
		transcript = "(no prior messages)"
	}
	return fmt.Sprintf(template, transcript, message)
}

// experiencePhrase maps the experience level to phrasing for the prompt
func experiencePhrase(level types.ExperienceLevel) string {
	switch level {
	case types.ExperienceFresher:
		return " - focus on fundamentals, learning attitude, and academic or project work"
	case types.ExperienceExperienced:
		return " - probe past production work, trade-off decisions, and ownership"
	default:
		return ""
	}
}

// difficultyPhrase maps a difficulty label to phrasing for the prompt
func difficultyPhrase(difficulty string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "beginner", "easy":
		return "keep questions approachable, one concept at a time"
	case "intermediate", "medium":
		return "expect working knowledge and some depth"
	case "advanced", "hard", "expert":
		return "push into edge cases, trade-offs, and design reasoning"
	default:
		return "calibrate to a typical screening round"
	}
}

// resolvePrompt selects the correct prompt string based on priority:
// a prompt loaded from a file, then one defined directly in the
// configuration, then the hardcoded default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
