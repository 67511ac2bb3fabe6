package service

import "errors"

var (
	// ErrAIGenerationFailed - ошибка при генерации текста AI
	ErrAIGenerationFailed = errors.New("ошибка генерации текста AI")
	// ErrTranscriptionFailed - сервис распознавания речи вернул ошибку или пустой текст
	ErrTranscriptionFailed = errors.New("ошибка распознавания речи")
	// ErrMediaGenerationFailed - ошибка генерации иллюстрации или озвучки
	ErrMediaGenerationFailed = errors.New("ошибка генерации медиа")
	// ErrInvalidStoryParams - параметры новой истории заполнены частично
	ErrInvalidStoryParams = errors.New("invalid story parameters")
)
