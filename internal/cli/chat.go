package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"prepmate/internal/ai"
	"prepmate/internal/types"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive interview practice chat",
	Long: `Start an interactive practice chat on the terminal. Each line you
type is sent with the running conversation history; Ctrl-D or "exit" ends the
session.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	chatConfig := cfg.GetChatConfig()
	aiService, err := ai.NewService(&chatConfig, ai.OperationChat, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() { _ = aiService.Close() }()

	fmt.Println("Interview practice chat. Type a message, or \"exit\" to quit.")

	var history []types.ChatMessage
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		reply, source, _ := aiService.Chat(cmd.Context(), message, history)
		fmt.Printf("[%s] %s\n", source, reply)

		history = append(history,
			types.ChatMessage{Role: "user", Content: message},
			types.ChatMessage{Role: "assistant", Content: reply},
		)
	}

	return scanner.Err()
}
