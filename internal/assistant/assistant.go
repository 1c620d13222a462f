package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/config"
)

const systemPrompt = "You are a concise support assistant for a ticketing system. " +
	"Answer the user's question directly; suggest opening a ticket for anything you cannot resolve."

// RateLimitedError is returned by Ask when the caller exceeded their quota.
// RetryMessage is safe to show to the invoking user.
type RateLimitedError struct {
	RetryMessage string
}

func (e *RateLimitedError) Error() string {
	return "assistant rate limited"
}

// Completer produces an assistant reply from prior turns and a new prompt.
type Completer interface {
	Complete(ctx context.Context, turns []Turn, prompt string) (string, error)
}

// Service runs assistant requests behind the rate limiter and conversation
// memory. The model itself is stateless; memory supplies short-term context.
type Service struct {
	completer Completer
	limiter   *RateLimiter
	memory    *Memory
	logger    *zap.Logger
}

// NewService constructs the assistant service.
func NewService(completer Completer, limiter *RateLimiter, memory *Memory, logger *zap.Logger) *Service {
	return &Service{
		completer: completer,
		limiter:   limiter,
		memory:    memory,
		logger:    logger,
	}
}

// Ask answers one user prompt. The rate budget is charged before the
// downstream call so concurrent requests from one user cannot both pass the
// check; a rejected request returns *RateLimitedError.
func (s *Service) Ask(ctx context.Context, userID, prompt string) (string, error) {
	if s.completer == nil {
		return "", errors.New("assistant not configured")
	}

	if ok, retry := s.limiter.Allow(userID); !ok {
		return "", &RateLimitedError{RetryMessage: retry}
	}
	s.limiter.RecordUsage(userID)

	turns := s.memory.Get(userID)
	reply, err := s.completer.Complete(ctx, turns, prompt)
	if err != nil {
		return "", fmt.Errorf("assistant completion: %w", err)
	}

	s.memory.Append(userID, Turn{Role: RoleUser, Text: prompt})
	s.memory.Append(userID, Turn{Role: RoleAssistant, Text: reply})
	return reply, nil
}

// OpenAICompleter calls the OpenAI chat completions API.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter builds a completer from assistant configuration, or nil
// when no API key is set.
func NewOpenAICompleter(cfg config.AssistantConfig) *OpenAICompleter {
	if cfg.APIKey == "" {
		return nil
	}
	return &OpenAICompleter{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}
}

// Complete renders memory turns plus the new prompt into a chat completion.
func (c *OpenAICompleter) Complete(ctx context.Context, turns []Turn, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+2)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, turn := range turns {
		switch turn.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
