package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LoadedOperationPrompts holds the file-backed prompt content for one AI operation
type LoadedOperationPrompts struct {
	System string
	User   string
}

// AllLoadedPrompts holds every prompt that was loaded from an external file.
// Inline config values and built-in defaults are resolved elsewhere; this
// struct only ever contains file content.
type AllLoadedPrompts struct {
	Questions LoadedOperationPrompts
	Evaluate  LoadedOperationPrompts
	Chat      LoadedOperationPrompts
}

var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   AllLoadedPrompts
)

// GetLoadedPrompts returns a snapshot of the file-backed prompts. Safe for
// concurrent use with the prompt watcher.
func GetLoadedPrompts() AllLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts
}

// promptFileBinding ties a configured file path to its slot in AllLoadedPrompts
type promptFileBinding struct {
	filePath   string
	promptType string // "system" or "user"
	operation  string // "questions", "evaluate", or "chat"
	target     *string
}

// promptFileBindings collects every configured prompt file. Operation-level
// file paths win over the global ones for the same slot.
func (c *Config) promptFileBindings(prompts *AllLoadedPrompts) []promptFileBinding {
	pick := func(opFile, globalFile string) string {
		if opFile != "" {
			return opFile
		}
		return globalFile
	}

	global := c.AI.CustomPrompts

	return []promptFileBinding{
		{pick(c.AI.Questions.CustomPrompts.SystemPrompts.GenerateQuestionsFile, global.SystemPrompts.GenerateQuestionsFile), "system", "questions", &prompts.Questions.System},
		{pick(c.AI.Questions.CustomPrompts.UserPrompts.GenerateQuestionsFile, global.UserPrompts.GenerateQuestionsFile), "user", "questions", &prompts.Questions.User},
		{pick(c.AI.Evaluate.CustomPrompts.SystemPrompts.EvaluateAnswerFile, global.SystemPrompts.EvaluateAnswerFile), "system", "evaluate", &prompts.Evaluate.System},
		{pick(c.AI.Evaluate.CustomPrompts.UserPrompts.EvaluateAnswerFile, global.UserPrompts.EvaluateAnswerFile), "user", "evaluate", &prompts.Evaluate.User},
		{pick(c.AI.Chat.CustomPrompts.SystemPrompts.ChatFile, global.SystemPrompts.ChatFile), "system", "chat", &prompts.Chat.System},
		{pick(c.AI.Chat.CustomPrompts.UserPrompts.ChatFile, global.UserPrompts.ChatFile), "user", "chat", &prompts.Chat.User},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file
// paths are specified. Called during startup, before the logger exists.
func (c *Config) loadPromptsFromFiles() error {
	var fresh AllLoadedPrompts
	count := 0

	for _, binding := range c.promptFileBindings(&fresh) {
		if binding.filePath == "" {
			continue
		}
		content, err := loadPromptFromFile(binding.filePath, binding.promptType, binding.operation)
		if err != nil {
			return err
		}
		*binding.target = content
		count++
	}

	loadedPromptsMu.Lock()
	loadedPrompts = fresh
	loadedPromptsMu.Unlock()

	if count > 0 {
		log.Printf("[CONFIG] Loaded %d custom prompt file(s)", count)
	}

	return nil
}

// ReloadPrompts re-reads every configured prompt file. Used by the prompt
// watcher when a file changes on disk. A read failure leaves the previous
// content in place.
func (c *Config) ReloadPrompts() error {
	return c.loadPromptsFromFiles()
}

// PromptFiles returns the configured prompt file paths, for watching
func (c *Config) PromptFiles() []string {
	var scratch AllLoadedPrompts
	var files []string
	for _, binding := range c.promptFileBindings(&scratch) {
		if binding.filePath != "" {
			files = append(files, binding.filePath)
		}
	}
	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	return trimmed, nil
}
