package rag

import (
	"errors"
	"fmt"
	"strings"

	"smartwaste/internal/models"
)

var (
	ErrMissingCredential = errors.New("no credential supplied")
	ErrInvalidCredential = errors.New("credential rejected")
	ErrIndexUnavailable  = errors.New("index unavailable")
	ErrQueryFailure      = errors.New("query failed")
)

// Kind tags the outcome of a single Ask.
type Kind int

const (
	KindAnswer Kind = iota
	KindMissingCredential
	KindInvalidCredential
	KindIndexUnavailable
	KindQueryFailure
)

func (k Kind) String() string {
	switch k {
	case KindAnswer:
		return "answer"
	case KindMissingCredential:
		return "missing_credential"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindIndexUnavailable:
		return "index_unavailable"
	case KindQueryFailure:
		return "query_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Stage names the backend a query failed against.
type Stage string

const (
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

// StageError attributes an error to the retrieval or generation backend.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result is exactly one of an answer or an error kind.
type Result struct {
	Kind     Kind
	Response *models.PromptResponse
	Err      error
}

// Message is the text shown to the end user.
func (r Result) Message() string {
	switch r.Kind {
	case KindAnswer:
		return models.MsgAnswer
	case KindMissingCredential:
		return models.MsgMissingCredential
	case KindInvalidCredential:
		return models.MsgInvalidCredential
	case KindIndexUnavailable:
		return models.MsgIndexUnavailable
	default:
		if r.Err == nil {
			return models.MsgQueryFailure
		}
		return fmt.Sprintf("%s: %v", models.MsgQueryFailure, r.Err)
	}
}

// Answer returns the generated text, or "" when the result is an error.
func (r Result) Answer() string {
	if r.Kind != KindAnswer || r.Response == nil {
		return ""
	}
	return r.Response.Content
}

// authMarkers are substrings OpenAI-compatible backends put in a credential rejection.
var authMarkers = []string{
	"status code: 401",
	"status code: 403",
	"invalid_api_key",
	"Incorrect API key",
	"invalid api key",
}

// IsAuthError reports whether err is a credential rejection by a backend.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidCredential) {
		return true
	}
	msg := err.Error()
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
