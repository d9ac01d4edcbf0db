package cli

import (
	"fmt"
	"strings"

	"prepmate/internal/ai"
	"prepmate/internal/types"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one interview answer",
	Long: `Evaluate a single answer against its interview question and print the
scored result as JSON. Without an API key the heuristic local evaluator is
used instead of the model.`,
	RunE: runEvaluate,
}

var evaluateFlags struct {
	question   string
	answer     string
	role       string
	experience string
	difficulty string
	output     string
}

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateFlags.question, "question", "q", "", "The interview question (required)")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.answer, "answer", "a", "", "The candidate's answer (required)")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.role, "role", "r", "", "Target role the answer is judged against")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.experience, "experience", "e", "Fresher", "Experience level: Fresher or Experienced")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.difficulty, "difficulty", "d", "intermediate", "Difficulty: beginner, intermediate, or advanced")
	evaluateCmd.Flags().StringVarP(&evaluateFlags.output, "output", "o", "", "Output file path (default: stdout)")
	_ = evaluateCmd.MarkFlagRequired("question")
	_ = evaluateCmd.MarkFlagRequired("answer")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if strings.TrimSpace(evaluateFlags.answer) == "" {
		return fmt.Errorf("answer must not be empty")
	}

	evaluateConfig := cfg.GetEvaluateConfig()
	aiService, err := ai.NewService(&evaluateConfig, ai.OperationEvaluate, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() { _ = aiService.Close() }()

	interviewCfg := types.InterviewConfig{
		Role:       evaluateFlags.role,
		Experience: types.ExperienceLevel(evaluateFlags.experience),
		Difficulty: evaluateFlags.difficulty,
	}

	logger.Info("Evaluating answer",
		"question_chars", len(evaluateFlags.question),
		"answer_chars", len(evaluateFlags.answer))

	evaluation, source, _ := aiService.EvaluateAnswer(cmd.Context(), evaluateFlags.question, evaluateFlags.answer, interviewCfg)

	result := map[string]any{
		"evaluation": evaluation,
		"source":     string(source),
	}

	return writeResult(evaluateFlags.output, result)
}
