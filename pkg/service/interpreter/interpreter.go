// Package interpreter turns a drawn spread into a written reading via the
// OpenAI chat completion API, and runs the background worker that applies
// interpretations to pending readings.
package interpreter

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"
)

// CardView is the slice of card data the prompt needs, detached from the
// storage model.
type CardView struct {
	Name              string
	NameZh            string
	Position          int
	IsReversed        bool
	MeaningUpright    string
	MeaningReversed   string
	MeaningUprightZh  string
	MeaningReversedZh string
}

// ViewFromDrawn projects a stored drawn card into a CardView.
func ViewFromDrawn(d domain.DrawnCardDetail) CardView {
	return CardView{
		Name:              d.Card.Name,
		NameZh:            d.Card.NameZh,
		Position:          d.Position,
		IsReversed:        d.IsReversed,
		MeaningUpright:    d.Card.MeaningUpright,
		MeaningReversed:   d.Card.MeaningReversed,
		MeaningUprightZh:  d.Card.MeaningUprightZh,
		MeaningReversedZh: d.Card.MeaningReversedZh,
	}
}

type Service interface {
	Interpret(ctx context.Context, cards []CardView, question string, language domain.Language) (string, error)
	Model() string
}

type Config struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4o,
		MaxTokens:   1000,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

type GPTService struct {
	client *openai.Client
	cfg    Config
}

func NewGPTService(apiKey string) *GPTService {
	return &GPTService{
		client: openai.NewClient(apiKey),
		cfg:    DefaultConfig(),
	}
}

func (s *GPTService) Model() string { return s.cfg.Model }

const maxAttempts = 3

// Interpret calls the completion API with a bounded retry. Transient
// upstream failures surface as an error so the caller can mark the reading
// FAILED instead of leaving it pending forever.
func (s *GPTService) Interpret(ctx context.Context, cards []CardView, question string, language domain.Language) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: BuildPrompt(cards, question, language),
		},
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.cfg.Model,
			Messages:    messages,
			MaxTokens:   s.cfg.MaxTokens,
			Temperature: s.cfg.Temperature,
			TopP:        s.cfg.TopP,
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty completion response")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("interpretation failed after %d attempts: %w", maxAttempts, lastErr)
}
