package service

import (
	"fmt"
	"regexp"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^\d+\.\s*`)

// parseChoices разбирает ответ модели на варианты выбора: по одному в строке,
// без нумерации модели, не длиннее maxTokens токенов, не больше limit штук.
// Результат пронумерован заново с "1.".
func parseChoices(raw string, counter TokenCounter, maxTokens, limit int) []string {
	var choices []string
	for _, line := range strings.Split(raw, "\n") {
		if len(choices) == limit {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		choice := strings.TrimSpace(leadingNumber.ReplaceAllString(line, ""))
		if choice == "" {
			continue
		}
		if counter.CountTokens(choice) > maxTokens {
			continue
		}
		choices = append(choices, fmt.Sprintf("%d. %s", len(choices)+1, choice))
	}
	return choices
}

// formatStory готовит фрагмент к показу: без крайних пробелов и с пустой строкой в конце.
func formatStory(text string) string {
	return strings.TrimSpace(text) + "\n\n"
}
