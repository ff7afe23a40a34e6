// Package llm wraps the OpenAI chat API for query reformulation and
// grounded answer generation.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"

	"github.com/bull/ragchat/internal/domain"
)

const (
	// DefaultModel is used when a request does not name a model.
	DefaultModel = "gpt-4o-mini"

	// reformulateModel is fixed; reformulation is a cheap utility call and
	// does not follow the caller's model override.
	reformulateModel = "gpt-4o-mini"
)

const reformulateSystemPrompt = `Given a conversation history and a follow-up question, rewrite the question as a standalone search query that contains all context needed to understand it. Resolve pronouns and references to earlier turns. Return only the rewritten query, nothing else.`

const answerSystemPrompt = `You answer questions using ONLY the provided passages. If the passages do not contain the answer, say you don't know. Do not use outside knowledge. The conversation history is context for understanding the question, not a source of facts.`

// Generator implements domain.Generator on the OpenAI chat completions API.
type Generator struct {
	client       openai.Client
	defaultModel string
}

// NewGenerator creates a Generator. The OpenAI API key is read from
// OPENAI_API_KEY; an unset key is an error.
func NewGenerator(defaultModel string) (*Generator, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Generator{
		client:       openai.NewClient(),
		defaultModel: defaultModel,
	}, nil
}

// Reformulate rewrites a follow-up question into a standalone search query
// using the session history. Callers skip this for the first turn of a
// session; an empty history here still yields a usable query.
func (g *Generator) Reformulate(ctx context.Context, question string, history []domain.ChatTurn) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(reformulateSystemPrompt),
	}
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, openai.UserMessage(question))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(reformulateModel),
	})
	if err != nil {
		return "", fmt.Errorf("reformulate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("reformulate: empty response")
	}
	query := strings.TrimSpace(resp.Choices[0].Message.Content)
	if query == "" {
		return "", fmt.Errorf("reformulate: empty query")
	}
	return query, nil
}

// Answer generates a grounded answer from the retrieved passages. The model
// argument overrides the default when non-empty.
func (g *Generator) Answer(ctx context.Context, model, question string, history []domain.ChatTurn, passages []string) (string, error) {
	if model == "" {
		model = g.defaultModel
	}

	var prompt strings.Builder
	prompt.WriteString("Passages:\n\n")
	for i, p := range passages {
		fmt.Fprintf(&prompt, "[%d] %s\n\n", i+1, p)
	}
	prompt.WriteString("Question: ")
	prompt.WriteString(question)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(answerSystemPrompt),
	}
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, openai.UserMessage(prompt.String()))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// historyMessages renders prior turns as alternating user/assistant
// messages, oldest first.
func historyMessages(history []domain.ChatTurn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)*2)
	for _, turn := range history {
		messages = append(messages,
			openai.UserMessage(turn.Question),
			openai.AssistantMessage(turn.Answer),
		)
	}
	return messages
}
