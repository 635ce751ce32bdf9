package llmservice

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms/openai"

	"smartwaste/internal/config"
	"smartwaste/internal/helper"
)

// NewChatModel returns a chat-completion client authorised by credential.
// Sampling options such as temperature are passed per call.
func NewChatModel(llmConfig *config.LLMConfig, credential string) (*openai.LLM, error) {
	log.Debug().
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Str("key", helper.MaskSecret(credential)).
		Msg("Creating chat model")

	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(credential, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}
	return llm, nil
}
