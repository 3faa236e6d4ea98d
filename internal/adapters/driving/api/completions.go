package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// completionChoice mirrors the OpenAI response shape so existing clients
// can point at this server unchanged.
type completionChoice struct {
	Index        int             `json:"index"`
	Message      *domain.Message `json:"message,omitempty"`
	Text         string          `json:"text,omitempty"`
	FinishReason string          `json:"finish_reason"`
}

type completionResult struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
}

// handleChatCompletion augments a chat request with recalled memory and
// forwards it to the generation backend.
//
// POST /v1/chat/completions
func (s *Server) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	if s.completion == nil {
		writeError(w, fmt.Errorf("chat completion: %w", domain.ErrLLMUnavailable))
		return
	}

	var req domain.ChatCompletionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, fmt.Errorf("%w: messages are required", domain.ErrInvalidInput))
		return
	}

	augmented, state, err := s.augmenter.AugmentChat(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.Debug("Chat request augmentation state: %s", state)

	messages := make([]driven.ChatMessage, len(augmented.Messages))
	for i, msg := range augmented.Messages {
		messages[i] = driven.ChatMessage{Role: msg.Role, Content: msg.Content}
	}

	content, err := s.completion.Chat(r.Context(), messages, driven.CompleteOptions{
		MaxTokens:   augmented.MaxTokens,
		Temperature: augmented.Temperature,
	})
	if err != nil {
		writeError(w, fmt.Errorf("chat completion: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, completionResult{
		ID:      fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   s.completion.ModelName(),
		Choices: []completionChoice{{
			Message:      &domain.Message{Role: domain.RoleAssistant, Content: content},
			FinishReason: "stop",
		}},
	})
}

// handleCompletion augments a plain-prompt request and forwards it.
//
// POST /v1/completions
func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	if s.completion == nil {
		writeError(w, fmt.Errorf("completion: %w", domain.ErrLLMUnavailable))
		return
	}

	var req domain.CompletionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Prompt == "" {
		writeError(w, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput))
		return
	}

	augmented, state, err := s.augmenter.AugmentCompletion(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	logger.Debug("Completion request augmentation state: %s", state)

	text, err := s.completion.Complete(r.Context(), augmented.Prompt, driven.CompleteOptions{
		MaxTokens:   augmented.MaxTokens,
		Temperature: augmented.Temperature,
	})
	if err != nil {
		writeError(w, fmt.Errorf("completion: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, completionResult{
		ID:      fmt.Sprintf("cmpl-%d", time.Now().UnixNano()),
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   s.completion.ModelName(),
		Choices: []completionChoice{{
			Text:         text,
			FinishReason: "stop",
		}},
	})
}
