package types

import "time"

// InterviewType selects which kinds of questions a session contains
type InterviewType string

const (
	InterviewTypeHR        InterviewType = "HR"
	InterviewTypeTechnical InterviewType = "Technical"
	InterviewTypeMixed     InterviewType = "Mixed"
)

// ExperienceLevel describes the candidate's seniority
type ExperienceLevel string

const (
	ExperienceFresher     ExperienceLevel = "Fresher"
	ExperienceExperienced ExperienceLevel = "Experienced"
)

// Category labels a single question slot
type Category string

const (
	CategoryHR        Category = "HR"
	CategoryTechnical Category = "Technical"
)

// QuestionsPerSession is the fixed length of every interview
const QuestionsPerSession = 5

// InterviewConfig describes one mock interview. Immutable once a session starts.
type InterviewConfig struct {
	Type       InterviewType   `json:"type"`
	Role       string          `json:"role"`
	Experience ExperienceLevel `json:"experience"`
	Company    string          `json:"company"`
	Difficulty string          `json:"difficulty"`
}

// CategoryPlan returns the fixed ordered category labels for the 5 question
// slots. No randomness: HR and Technical sessions are uniform, everything
// else gets the alternating mixed pattern.
func CategoryPlan(t InterviewType) [QuestionsPerSession]Category {
	switch t {
	case InterviewTypeHR:
		return [QuestionsPerSession]Category{CategoryHR, CategoryHR, CategoryHR, CategoryHR, CategoryHR}
	case InterviewTypeTechnical:
		return [QuestionsPerSession]Category{CategoryTechnical, CategoryTechnical, CategoryTechnical, CategoryTechnical, CategoryTechnical}
	default:
		return [QuestionsPerSession]Category{CategoryHR, CategoryTechnical, CategoryHR, CategoryTechnical, CategoryHR}
	}
}

// Question is one question slot in a session
type Question struct {
	ID       int      `json:"id"` // 1-based sequence number
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// EvaluationResult is the scored feedback for one answer. All numeric
// fields are clamped into their documented ranges before this struct
// leaves the ai package.
type EvaluationResult struct {
	Relevance       int      `json:"relevance"`       // 1-10
	Clarity         int      `json:"clarity"`         // 1-10
	Confidence      int      `json:"confidence"`      // 1-10
	TechnicalDepth  int      `json:"technical_depth"` // 1-10
	OverallScore    int      `json:"overall_score"`   // 1-100
	Sentiment       string   `json:"sentiment"`
	Feedback        string   `json:"feedback"`
	ImprovementTips []string `json:"improvement_tips"` // exactly 3
}

// Answer records one submitted response and its evaluation
type Answer struct {
	QuestionID   int               `json:"questionId"`
	QuestionText string            `json:"questionText"`
	AnswerText   string            `json:"answerText"`
	Evaluation   *EvaluationResult `json:"evaluation,omitempty"`
}

// SessionStatus is the lifecycle state of an InterviewSession
type SessionStatus string

const (
	SessionIdle      SessionStatus = "idle"
	SessionOngoing   SessionStatus = "ongoing"
	SessionCompleted SessionStatus = "completed"
)

// InterviewSession is one complete run through a 5-question interview.
// Single-owner: never mutated concurrently.
type InterviewSession struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"userId,omitempty"`
	Config               InterviewConfig `json:"config"`
	Questions            []Question      `json:"questions"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	Answers              []Answer        `json:"answers"`
	StartTime            time.Time       `json:"startTime"`
	EndTime              *time.Time      `json:"endTime,omitempty"`
	Status               SessionStatus   `json:"status"`
}

// ChatMessage is one turn in the practice-chat history
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
