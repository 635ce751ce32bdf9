package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"

	"smartwaste/internal/models"
)

// ChatModelFunc builds a chat-completion client authorised by credential.
type ChatModelFunc func(credential string) (llms.Model, error)

// Executor runs one retrieval-then-generate pass per call. It never retries.
type Executor struct {
	newModel    ChatModelFunc
	temperature float64
	topK        int
}

func NewExecutor(newModel ChatModelFunc, temperature float64, topK int) *Executor {
	return &Executor{newModel: newModel, temperature: temperature, topK: topK}
}

// generationModel tags errors from the chat backend with StageGeneration.
type generationModel struct {
	llms.Model
}

func (m generationModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	resp, err := m.Model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, &StageError{Stage: StageGeneration, Err: err}
	}
	return resp, nil
}

// Answer retrieves context for question from h and asks the chat model to
// answer with it. An empty question is sent as is.
func (e *Executor) Answer(ctx context.Context, h *IndexHandle, question string) (*models.PromptResponse, error) {
	model, err := e.newModel(h.credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailure, err)
	}

	ret := &retriever{index: h.index, topK: e.topK}
	qa := chains.NewRetrievalQAFromLLM(generationModel{Model: model}, ret)

	answer, err := chains.Run(ctx, qa, question, chains.WithTemperature(e.temperature))
	if err != nil {
		return nil, classifyQueryError(err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("%w: %s returned an empty answer", ErrQueryFailure, StageGeneration)
	}

	log.Debug().Int("sources", len(ret.sources)).Msg("Query answered")

	resp := &models.PromptResponse{
		Query:   question,
		Content: answer,
		Sources: ret.sources,
	}
	if len(ret.sources) > 0 {
		resp.Source = ret.sources[0].Content
	}
	return resp, nil
}

func classifyQueryError(err error) error {
	if IsAuthError(err) {
		return fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return fmt.Errorf("%w: %w", ErrQueryFailure, err)
}
