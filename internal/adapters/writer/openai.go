package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/i18n"
	openai "compliment-bot/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI сочиняет и отбирает комплименты через OpenAI Chat Completions.
type OpenAI struct {
	client        chatClient
	texts         *i18n.Bundle
	model         string
	temperature   float64
	timeout       time.Duration
	ignoredTopics []string
}

var (
	_ domain.Composer = (*OpenAI)(nil)
	_ domain.Selector = (*OpenAI)(nil)
)

// NewOpenAI создаёт генератор комплиментов.
func NewOpenAI(client chatClient, texts *i18n.Bundle, model string, temperature float64, timeout time.Duration, ignoredTopics []string) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		client:        client,
		texts:         texts,
		model:         model,
		temperature:   temperature,
		timeout:       timeout,
		ignoredTopics: ignoredTopics,
	}
}

type complimentPayload struct {
	Compliment string `json:"compliment"`
}

// Compose строит один вариант комплимента по новости.
func (w *OpenAI) Compose(ctx context.Context, lang domain.Language, item domain.NewsItem) (domain.Candidate, error) {
	system := w.texts.Text(lang, "prompts.compose_system")
	user := w.texts.Textf(lang, "prompts.compose_user", map[string]string{
		"title":       item.Title,
		"description": item.Description,
	})
	text, err := w.complete(ctx, system, user)
	if err != nil {
		return domain.Candidate{}, err
	}
	return domain.Candidate{Item: item, Text: text}, nil
}

// Select выбирает лучший комплимент из пронумерованного списка вариантов.
func (w *OpenAI) Select(ctx context.Context, lang domain.Language, candidates []domain.Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("выбор без кандидатов")
	}

	ignored := "none"
	if len(w.ignoredTopics) > 0 {
		ignored = strings.Join(w.ignoredTopics, ", ")
	}
	system := w.texts.Textf(lang, "prompts.select_system", map[string]string{
		"ignored_topics": ignored,
	})

	var listing strings.Builder
	for i, cand := range candidates {
		fmt.Fprintf(&listing, "Compliment %d: %s\n", i+1, cand.Text)
	}
	user := w.texts.Textf(lang, "prompts.select_user", map[string]string{
		"compliments": strings.TrimRight(listing.String(), "\n"),
	})

	return w.complete(ctx, system, user)
}

func (w *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       w.model,
		Temperature: w.temperature,
		MaxTokens:   300,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: system},
			{Role: openai.RoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	resp, err := w.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: пустой ответ")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var parsed complimentPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", fmt.Errorf("распаковка ответа LLM: %w", err)
	}
	text := strings.TrimSpace(parsed.Compliment)
	if text == "" {
		return "", fmt.Errorf("в ответе LLM нет комплимента")
	}
	return text, nil
}
