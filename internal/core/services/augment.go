package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driving"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// Ensure Augmenter implements the interface.
var _ driving.Augmenter = (*Augmenter)(nil)

// Bounds on the conversation excerpt fed to query generation. Both are
// checked before a message is added, so the excerpt can exceed them by at
// most one message.
const (
	contextMaxChars = 512
	contextMaxLines = 15
)

// queryGenMaxTokens caps the generated query; queries are short topic
// phrases, not prose.
const queryGenMaxTokens = 512

// queryPromptPrefix asks the model for a search query that would help
// continue the conversation.
const queryPromptPrefix = "Given only the conversation snippet below, what is the most salient topic whose answer would be relevant in continuing the conversation? For example, if the conversation was about fire and moved on to scuba diving, you should answer 'scuba diving, ocean, favorite hobbies' (only an example!). State your answer without explanation, your entire response will be fed directly into a query engine:"

// memoryNoteFormat wraps the recalled summary in a hedge so models treat
// uncertain memories as optional context rather than ground truth.
const memoryNoteFormat = "Here are some things you know, that may or may not be relevant to the current conversation. Do not assume that you are currently talking to any named individuals. Use this knowledge if and only if you are 90%%+ convinced that it is relevant to the conversation, otherwise ignore it: %s"

// Augmenter implements the two-phase augmentation protocol: generate a
// retrieval query from recent conversation context, recall documents for
// it, then inject the recalled summary into the request as a system note.
type Augmenter struct {
	recall   driving.RecallService
	queryLLM driven.CompletionService
}

// NewAugmenter creates an augmenter. queryLLM generates retrieval queries
// and must not itself be augmented, or every completion would recurse.
func NewAugmenter(recall driving.RecallService, queryLLM driven.CompletionService) *Augmenter {
	return &Augmenter{
		recall:   recall,
		queryLLM: queryLLM,
	}
}

// AugmentChat injects recalled memory into a chat request. The input
// request is never modified.
func (a *Augmenter) AugmentChat(ctx context.Context, req domain.ChatCompletionRequest) (domain.ChatCompletionRequest, domain.AugmentState, error) {
	if req.DisableAugmentation {
		logger.Debug("Augmentation disabled on request")
		return req, domain.AugmentStateUnaugmented, nil
	}

	logger.Section("Chat Augmentation")
	excerpt := conversationExcerpt(req.Messages)

	note, state, err := a.buildMemoryNote(ctx, excerpt)
	if err != nil {
		return req, state, err
	}

	out := req.Clone()
	injectSystemNote(&out, note)
	return out, domain.AugmentStateAugmented, nil
}

// AugmentCompletion injects recalled memory into a plain-prompt request by
// prepending the memory note to the prompt.
func (a *Augmenter) AugmentCompletion(ctx context.Context, req domain.CompletionRequest) (domain.CompletionRequest, domain.AugmentState, error) {
	if req.DisableAugmentation {
		logger.Debug("Augmentation disabled on request")
		return req, domain.AugmentStateUnaugmented, nil
	}

	logger.Section("Completion Augmentation")

	note, state, err := a.buildMemoryNote(ctx, req.Prompt)
	if err != nil {
		return req, state, err
	}

	out := req
	out.Prompt = note + "\n\n" + req.Prompt
	return out, domain.AugmentStateAugmented, nil
}

// buildMemoryNote runs query generation and recall for the given
// conversation excerpt and renders the hedged system note. The returned
// state reports how far the protocol got when an error occurs.
func (a *Augmenter) buildMemoryNote(ctx context.Context, excerpt string) (string, domain.AugmentState, error) {
	topic, err := a.generateQuery(ctx, excerpt)
	if err != nil {
		return "", domain.AugmentStateUnaugmented, fmt.Errorf("generate retrieval query: %w", err)
	}
	logger.Debug("Generated query: %q", topic)

	opts := domain.DefaultRecallOptions()
	opts.TopicContext = excerpt
	result, err := a.recall.Recall(ctx, topic, opts)
	if err != nil {
		return "", domain.AugmentStateQueryGenerated, fmt.Errorf("recall for query %q: %w", topic, err)
	}
	logger.Debug("Recalled %d documents for augmentation", len(result.Documents))

	note := fmt.Sprintf(memoryNoteFormat, result.Summary)
	return note, domain.AugmentStateRecalled, nil
}

// generateQuery asks the backend what topic would be most useful to look
// up given the conversation so far.
func (a *Augmenter) generateQuery(ctx context.Context, excerpt string) (string, error) {
	if a.queryLLM == nil {
		return "", domain.ErrLLMUnavailable
	}

	prompt := queryPromptPrefix + ":\n\n" + excerpt + "\nSalient query: "
	topic, err := a.queryLLM.Complete(ctx, prompt, driven.CompleteOptions{MaxTokens: queryGenMaxTokens})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(topic), nil
}

// conversationExcerpt collects recent non-system messages, newest last, by
// walking the conversation backwards until the size bounds are hit.
func conversationExcerpt(messages []domain.Message) string {
	excerpt := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if len(excerpt) >= contextMaxChars || strings.Count(excerpt, "\n")+1 >= contextMaxLines {
			break
		}
		if messages[i].Role == domain.RoleSystem {
			continue
		}
		excerpt = messages[i].Content + "\n" + excerpt
	}
	return excerpt
}

// injectSystemNote places the memory note where the model is most likely
// to honor it: appended to the first system message when one exists,
// otherwise as a bracketed note on the last message, otherwise as a fresh
// system message.
func injectSystemNote(req *domain.ChatCompletionRequest, note string) {
	for i := range req.Messages {
		if req.Messages[i].Role == domain.RoleSystem {
			req.Messages[i].Content += "\n\n" + note
			return
		}
	}

	if len(req.Messages) > 0 {
		last := len(req.Messages) - 1
		req.Messages[last].Content += "\n\n[System note: " + note + "]"
		return
	}

	req.Messages = append(req.Messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: note,
	})
}
