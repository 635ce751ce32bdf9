package rag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"smartwaste/internal/config"
	"smartwaste/internal/helper"
	"smartwaste/internal/metrics"
)

// Service answers questions about the project: credential gate, then index
// handle cache, then query executor.
type Service struct {
	gate     *Gate
	cache    *IndexCache
	executor *Executor
	metrics  *metrics.Metrics
}

func NewService(cache *IndexCache, executor *Executor, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Service{
		gate:     NewGate(),
		cache:    cache,
		executor: executor,
		metrics:  m,
	}
}

// New wires a Service against the OpenAI-compatible endpoints and index in cfg.
func New(cfg *config.Config, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New(nil)
	}
	cache := NewIndexCache(NewIndexBuilder(cfg), m)
	executor := NewExecutor(NewChatModelFunc(cfg), cfg.RAG.SamplingTemperature(), cfg.RAG.TopK)
	return NewService(cache, executor, m)
}

func (s *Service) Gate() *Gate {
	return s.gate
}

func (s *Service) Cache() *IndexCache {
	return s.cache
}

// Ask runs one user action end to end and never returns both an answer and an error.
func (s *Service) Ask(ctx context.Context, credential, question string) Result {
	start := time.Now()
	res := s.ask(ctx, strings.TrimSpace(credential), question)

	s.metrics.QueriesTotal.WithLabelValues(res.Kind.String()).Inc()
	s.metrics.QueryDuration.Observe(time.Since(start).Seconds())

	evt := log.Info()
	if res.Err != nil {
		evt = log.Warn().Err(res.Err)
	}
	evt.Str("kind", res.Kind.String()).
		Str("key", helper.MaskSecret(credential)).
		Dur("took", time.Since(start)).
		Msg("Handled query")
	return res
}

func (s *Service) ask(ctx context.Context, credential, question string) Result {
	if s.gate.Validate(credential) == Rejected {
		return Result{Kind: KindMissingCredential, Err: ErrMissingCredential}
	}

	h, err := s.cache.GetOrBuild(ctx, credential)
	if err != nil {
		if IsAuthError(err) {
			s.gate.Revoke(credential)
			return Result{Kind: KindInvalidCredential, Err: errors.Join(ErrInvalidCredential, err)}
		}
		return Result{Kind: KindIndexUnavailable, Err: errors.Join(ErrIndexUnavailable, err)}
	}
	defer h.Release()

	resp, err := s.executor.Answer(ctx, h, question)
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			// only the rejected credential's handle is dropped; it closes after Release
			s.cache.Invalidate(credential)
			s.gate.Revoke(credential)
			return Result{Kind: KindInvalidCredential, Err: err}
		}
		return Result{Kind: KindQueryFailure, Err: err}
	}
	return Result{Kind: KindAnswer, Response: resp}
}

// Close releases every cached index handle.
func (s *Service) Close() error {
	return s.cache.Close()
}
