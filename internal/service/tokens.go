package service

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// TokenCounter считает токены текста.
type TokenCounter interface {
	CountTokens(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// wordCounter - приближение, если словарь tiktoken недоступен.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

// NewTokenCounter возвращает счетчик на словаре модели, затем на cl100k_base.
// Если словарь загрузить не удалось, считает слова.
func NewTokenCounter(model string, logger *zap.Logger) TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return &tiktokenCounter{enc: enc}
	}
	logger.Debug("No tiktoken encoding for model, trying cl100k_base", zap.String("model", model), zap.Error(err))

	enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err == nil {
		return &tiktokenCounter{enc: enc}
	}
	logger.Warn("tiktoken encoding unavailable, counting words instead", zap.Error(err))
	return wordCounter{}
}
