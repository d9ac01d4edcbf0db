package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"prepmate/internal/ai"
	"prepmate/internal/types"

	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate a five-question mock interview set",
	Long: `Generate the five questions for one mock interview session and print
them as JSON. The set is tailored to the role, company, interview type,
experience level, and difficulty you pass. Without an API key the questions
come from the deterministic local generator.`,
	RunE: runQuestions,
}

var questionsFlags struct {
	role       string
	company    string
	typ        string
	experience string
	difficulty string
	output     string
}

func init() {
	questionsCmd.Flags().StringVarP(&questionsFlags.role, "role", "r", "", "Target role, e.g. 'Backend Developer' (required)")
	questionsCmd.Flags().StringVarP(&questionsFlags.company, "company", "c", "", "Target company")
	questionsCmd.Flags().StringVarP(&questionsFlags.typ, "type", "t", "Mixed", "Interview type: HR, Technical, or Mixed")
	questionsCmd.Flags().StringVarP(&questionsFlags.experience, "experience", "e", "Fresher", "Experience level: Fresher or Experienced")
	questionsCmd.Flags().StringVarP(&questionsFlags.difficulty, "difficulty", "d", "intermediate", "Difficulty: beginner, intermediate, or advanced")
	questionsCmd.Flags().StringVarP(&questionsFlags.output, "output", "o", "", "Output file path (default: stdout)")
	_ = questionsCmd.MarkFlagRequired("role")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	questionsConfig := cfg.GetQuestionsConfig()
	aiService, err := ai.NewService(&questionsConfig, ai.OperationQuestions, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() { _ = aiService.Close() }()

	interviewCfg := types.InterviewConfig{
		Type:       types.InterviewType(questionsFlags.typ),
		Role:       questionsFlags.role,
		Experience: types.ExperienceLevel(questionsFlags.experience),
		Company:    questionsFlags.company,
		Difficulty: questionsFlags.difficulty,
	}

	logger.Info("Generating interview questions",
		"role", interviewCfg.Role,
		"company", interviewCfg.Company,
		"type", string(interviewCfg.Type))

	questions, source, _ := aiService.GenerateQuestions(cmd.Context(), interviewCfg)

	result := map[string]any{
		"questions": questions,
		"source":    string(source),
	}

	return writeResult(questionsFlags.output, result)
}

// writeResult marshals v as indented JSON to the given file, or stdout when
// the path is empty
func writeResult(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
