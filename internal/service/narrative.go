package service

import (
	"context"
	"fmt"
	"strings"

	"adventure-server/internal/config"

	"go.uber.org/zap"
)

// GeneratedSegment - ответ генерации на один ход: фрагмент истории и варианты выбора.
// Пустой Choices означает завершение истории.
type GeneratedSegment struct {
	Text    string
	Choices []string
}

// NarrativeGenerator - граница сервиса генерации истории.
type NarrativeGenerator interface {
	// Continue продолжает историю по контексту сессии. На финальном ходу
	// варианты не запрашиваются и Choices пуст.
	Continue(ctx context.Context, promptContext string, final bool) (GeneratedSegment, error)
	// Opening генерирует первый фрагмент персонализированной истории.
	Opening(ctx context.Context, params StoryParams) (string, error)
	// Choices генерирует варианты выбора для фрагмента.
	Choices(ctx context.Context, story string) ([]string, error)
}

// StoryGenerator реализует NarrativeGenerator поверх AIClient.
type StoryGenerator struct {
	ai               AIClient
	counter          TokenCounter
	systemPrompt     string
	storyMaxTokens   int
	choicesMaxTokens int
	choiceMaxTokens  int
	choiceCount      int
	temperature      float64
	logger           *zap.Logger
}

// Compile-time check
var _ NarrativeGenerator = (*StoryGenerator)(nil)

// NewStoryGenerator создает генератор истории с параметрами из конфигурации.
func NewStoryGenerator(ai AIClient, counter TokenCounter, cfg *config.Config, logger *zap.Logger) *StoryGenerator {
	return &StoryGenerator{
		ai:               ai,
		counter:          counter,
		systemPrompt:     cfg.StorySystemPrompt,
		storyMaxTokens:   cfg.StoryMaxTokens,
		choicesMaxTokens: cfg.ChoicesMaxTokens,
		choiceMaxTokens:  cfg.ChoiceMaxTokens,
		choiceCount:      cfg.ChoiceCount,
		temperature:      cfg.StoryTemperature,
		logger:           logger.Named("StoryGenerator"),
	}
}

func (g *StoryGenerator) Continue(ctx context.Context, promptContext string, final bool) (GeneratedSegment, error) {
	prompt := buildContinuationPrompt(promptContext, final)
	text, _, err := g.ai.GenerateText(ctx, g.systemPrompt, prompt, GenerationParams{MaxTokens: positive(g.storyMaxTokens)})
	if err != nil {
		return GeneratedSegment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return GeneratedSegment{}, fmt.Errorf("%w: пустой фрагмент истории", ErrAIGenerationFailed)
	}

	segment := GeneratedSegment{Text: text}
	if final {
		return segment, nil
	}

	choices, err := g.Choices(ctx, text)
	if err != nil {
		return GeneratedSegment{}, err
	}
	segment.Choices = choices
	return segment, nil
}

func (g *StoryGenerator) Opening(ctx context.Context, params StoryParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	temperature := g.temperature
	text, _, err := g.ai.GenerateText(ctx, "", buildOpeningPrompt(params), GenerationParams{Temperature: &temperature})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: пустое вступление", ErrAIGenerationFailed)
	}
	return text, nil
}

func (g *StoryGenerator) Choices(ctx context.Context, story string) ([]string, error) {
	raw, _, err := g.ai.GenerateText(ctx, g.systemPrompt, buildChoicesPrompt(story, g.choiceMaxTokens),
		GenerationParams{MaxTokens: positive(g.choicesMaxTokens)})
	if err != nil {
		return nil, err
	}
	choices := parseChoices(raw, g.counter, g.choiceMaxTokens, g.choiceCount)
	if len(choices) == 0 {
		// Пустой набор завершил бы историю раньше лимита ходов
		g.logger.Warn("No usable choices in model response", zap.Int("raw_chars", len(raw)))
		return nil, fmt.Errorf("%w: нет подходящих вариантов выбора", ErrAIGenerationFailed)
	}
	return choices, nil
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
