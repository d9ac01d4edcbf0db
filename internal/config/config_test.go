package config

import (
	"testing"
	"time"
)

func validTestConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider:       "gemini",
			Model:          "gemini-2.0-flash",
			Timeout:        60 * time.Second,
			MaxRetries:     2,
			InitialBackoff: time.Second,
			Temperature:    0.7,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
		},
		Store: StoreConfig{
			Path:         "prepmate.db",
			HistoryLimit: 50,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "missing API key is allowed",
			mutate: func(c *Config) { c.AI.APIKey = "" },
		},
		{
			name:    "zero AI timeout",
			mutate:  func(c *Config) { c.AI.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative max retries",
			mutate:  func(c *Config) { c.AI.MaxRetries = -1 },
			wantErr: true,
		},
		{
			name:    "empty server port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: true,
		},
		{
			name:    "TLS cert without key",
			mutate:  func(c *Config) { c.Server.TLSCertFile = "/tmp/cert.pem" },
			wantErr: true,
		},
		{
			name:    "TLS key without cert",
			mutate:  func(c *Config) { c.Server.TLSKeyFile = "/tmp/key.pem" },
			wantErr: true,
		},
		{
			name: "TLS with both files",
			mutate: func(c *Config) {
				c.Server.TLSCertFile = "/tmp/cert.pem"
				c.Server.TLSKeyFile = "/tmp/key.pem"
			},
		},
		{
			name:    "zero history limit",
			mutate:  func(c *Config) { c.Store.HistoryLimit = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected a validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestGetQuestionsConfigInheritsGlobals(t *testing.T) {
	cfg := validTestConfig()
	cfg.AI.APIKey = "global-key"
	cfg.AI.UseSystemPrompts = true
	cfg.AI.CustomPrompts.SystemPrompts.GenerateQuestions = "global system prompt"

	got := cfg.GetQuestionsConfig()

	if got.Provider != "gemini" {
		t.Errorf("Provider = %q, want inherited global", got.Provider)
	}
	if got.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q, want inherited global", got.Model)
	}
	if got.APIKey != "global-key" {
		t.Errorf("APIKey = %q, want inherited global", got.APIKey)
	}
	if got.Timeout == nil || *got.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want pointer to global value", got.Timeout)
	}
	if got.MaxRetries == nil || *got.MaxRetries != 2 {
		t.Errorf("MaxRetries = %v, want pointer to global value", got.MaxRetries)
	}
	if got.InitialBackoff == nil || *got.InitialBackoff != time.Second {
		t.Errorf("InitialBackoff = %v, want pointer to global value", got.InitialBackoff)
	}
	if got.Temperature == nil || *got.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want pointer to global value", got.Temperature)
	}
	if got.UseSystemPrompts == nil || !*got.UseSystemPrompts {
		t.Errorf("UseSystemPrompts = %v, want pointer to global value", got.UseSystemPrompts)
	}
	if got.CustomPrompts.SystemPrompts.GenerateQuestions != "global system prompt" {
		t.Errorf("system prompt = %q, want global fallback", got.CustomPrompts.SystemPrompts.GenerateQuestions)
	}
}

func TestGetEvaluateConfigOverridesWin(t *testing.T) {
	temp := float32(0.2)
	retries := 5

	cfg := validTestConfig()
	cfg.AI.CustomPrompts.UserPrompts.EvaluateAnswer = "global user prompt"
	cfg.AI.Evaluate = OperationAIConfig{
		Model:       "gemini-2.5-pro",
		Temperature: &temp,
		MaxRetries:  &retries,
		CustomPrompts: PromptConfig{
			UserPrompts: UserPrompts{EvaluateAnswer: "evaluate-specific prompt"},
		},
	}

	got := cfg.GetEvaluateConfig()

	if got.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q, want operation override", got.Model)
	}
	if got.Provider != "gemini" {
		t.Errorf("Provider = %q, want inherited global", got.Provider)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want operation override", got.Temperature)
	}
	if got.MaxRetries == nil || *got.MaxRetries != 5 {
		t.Errorf("MaxRetries = %v, want operation override", got.MaxRetries)
	}
	if got.CustomPrompts.UserPrompts.EvaluateAnswer != "evaluate-specific prompt" {
		t.Errorf("user prompt = %q, want operation override", got.CustomPrompts.UserPrompts.EvaluateAnswer)
	}
}

func TestGetChatConfigPromptFallback(t *testing.T) {
	cfg := validTestConfig()
	cfg.AI.CustomPrompts.SystemPrompts.Chat = "global chat system"
	cfg.AI.CustomPrompts.UserPrompts.Chat = "global chat user"

	got := cfg.GetChatConfig()

	if got.CustomPrompts.SystemPrompts.Chat != "global chat system" {
		t.Errorf("chat system prompt = %q, want global fallback", got.CustomPrompts.SystemPrompts.Chat)
	}
	if got.CustomPrompts.UserPrompts.Chat != "global chat user" {
		t.Errorf("chat user prompt = %q, want global fallback", got.CustomPrompts.UserPrompts.Chat)
	}
}

func TestHasAPIKey(t *testing.T) {
	cfg := validTestConfig()
	if cfg.HasAPIKey() {
		t.Error("HasAPIKey = true for an empty key")
	}
	cfg.AI.APIKey = "secret"
	if !cfg.HasAPIKey() {
		t.Error("HasAPIKey = false for a configured key")
	}
}
