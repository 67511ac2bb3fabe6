package service

import (
	"fmt"
	"strings"
)

// Вступление истории по умолчанию и его варианты выбора.
const (
	openingPassage = "In a distant future, in a galaxy far away, a 10-year-old girl named Luna was preparing for her first solo space adventure. " +
		"Luna had always dreamt of exploring the unknown, and today, her dream was coming true. " +
		"She was equipped with a state-of-the-art space suit and a tiny, but incredibly advanced, spaceship named StarWing. " +
		"Luna's mission was to explore the mysterious Planet X, a world filled with secrets and adventures waiting to be discovered. " +
		"As Luna landed on Planet X, her ship's sensors picked up strange signals from deep within the planet's core. " +
		"She knew she had to investigate, but how? Luna could take her hoverboard to quickly navigate the surface, " +
		"use her digging tool to explore underground caves, or activate her drone to scout the area from above. " +
		"Each option held the promise of a new adventure, and Luna had to choose wisely."

	decisionInstruction   = "End the current segment with a sentence prompting the reader to make a decision."
	conclusionInstruction = "Conclude the story in a dramatic conclusion."

	imageStylePrefix = "An illustration in a consistent art style, with no text, no captions, no words, high quality. "
)

var openingChoices = []string{
	"1. Luna could take her hoverboard to quickly navigate the surface.",
	"2. Luna could use her digging tool to explore underground caves.",
	"3. Luna could activate her drone to scout the area from above.",
}

// OpeningPassage возвращает вступление истории по умолчанию.
func OpeningPassage() string { return openingPassage }

// OpeningChoices возвращает копию вариантов выбора вступления.
func OpeningChoices() []string {
	return append([]string(nil), openingChoices...)
}

// StoryParams - параметры персонализированной истории.
type StoryParams struct {
	Genre       string `json:"genre"`
	ChildGender string `json:"childGender"`
	Theme       string `json:"theme"`
	Age         string `json:"age"`
}

// IsZero сообщает, что ни один параметр не задан.
func (p StoryParams) IsZero() bool {
	return strings.TrimSpace(p.Genre) == "" && strings.TrimSpace(p.ChildGender) == "" &&
		strings.TrimSpace(p.Theme) == "" && strings.TrimSpace(p.Age) == ""
}

// Validate требует, чтобы были заданы все параметры.
func (p StoryParams) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Genre) == "" {
		missing = append(missing, "genre")
	}
	if strings.TrimSpace(p.ChildGender) == "" {
		missing = append(missing, "childGender")
	}
	if strings.TrimSpace(p.Theme) == "" {
		missing = append(missing, "theme")
	}
	if strings.TrimSpace(p.Age) == "" {
		missing = append(missing, "age")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidStoryParams, strings.Join(missing, ", "))
	}
	return nil
}

func buildOpeningPrompt(p StoryParams) string {
	return fmt.Sprintf("Write the first segment of a children's story for a %s-year-old %s about %s. The genre is %s.",
		strings.TrimSpace(p.Age), strings.TrimSpace(p.ChildGender), strings.TrimSpace(p.Theme), strings.TrimSpace(p.Genre))
}

// buildContinuationPrompt дополняет контекст сессии инструкцией хода.
func buildContinuationPrompt(promptContext string, final bool) string {
	instruction := decisionInstruction
	if final {
		instruction = conclusionInstruction
	}
	return promptContext + "\n\nPlease continue the story based on the user's input " + instruction
}

func buildChoicesPrompt(story string, maxTokens int) string {
	return fmt.Sprintf("Based on the following continuation, generate three relevant choices for the next part of the story. Each choice must be %d tokens or fewer:\n\n%s",
		maxTokens, story)
}

func buildImagePrompt(segment string) string {
	return imageStylePrefix + "A scene from the story: " + strings.TrimSpace(segment) + "."
}
