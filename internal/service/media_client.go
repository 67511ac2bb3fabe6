package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"adventure-server/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// GeneratedURLPrefix - публичный префикс, под которым раздается GeneratedDir.
const GeneratedURLPrefix = "/generated"

// Transcriber переводит запись речи в текст.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Illustrator рисует иллюстрацию к фрагменту и возвращает публичную ссылку на файл.
type Illustrator interface {
	GenerateImage(ctx context.Context, description, ref string) (string, error)
}

// VoiceNarrator озвучивает фрагмент и возвращает публичную ссылку на файл.
type VoiceNarrator interface {
	GenerateVoiceover(ctx context.Context, text, ref string) (string, error)
}

// OpenAIMediaClient реализует Transcriber, Illustrator и VoiceNarrator через OpenAI.
type OpenAIMediaClient struct {
	client             *openaigo.Client
	transcriptionModel string
	imageModel         string
	imageSize          string
	voiceModel         string
	voiceName          string
	outputDir          string
	logger             *zap.Logger
}

// Compile-time checks
var (
	_ Transcriber   = (*OpenAIMediaClient)(nil)
	_ Illustrator   = (*OpenAIMediaClient)(nil)
	_ VoiceNarrator = (*OpenAIMediaClient)(nil)
)

// NewOpenAIMediaClient создает клиент и каталог для сгенерированных файлов.
func NewOpenAIMediaClient(cfg *config.Config, logger *zap.Logger) (*OpenAIMediaClient, error) {
	if err := os.MkdirAll(cfg.GeneratedDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create generated dir %s: %w", cfg.GeneratedDir, err)
	}

	openaiConfig := openaigo.DefaultConfig(cfg.OpenAIAPIKey)
	openaiConfig.BaseURL = cfg.MediaBaseURL
	openaiConfig.HTTPClient = &http.Client{
		Timeout: cfg.AITimeout,
	}

	log := logger.Named("OpenAIMediaClient")
	log.Info("OpenAI media client created",
		zap.String("base_url", cfg.MediaBaseURL),
		zap.String("output_dir", cfg.GeneratedDir),
	)
	return &OpenAIMediaClient{
		client:             openaigo.NewClientWithConfig(openaiConfig),
		transcriptionModel: cfg.TranscriptionModel,
		imageModel:         cfg.ImageModel,
		imageSize:          cfg.ImageSize,
		voiceModel:         cfg.VoiceModel,
		voiceName:          cfg.VoiceName,
		outputDir:          cfg.GeneratedDir,
		logger:             log,
	}, nil
}

func (m *OpenAIMediaClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if filename == "" {
		filename = "audio.webm"
	}
	start := time.Now()
	resp, err := m.client.CreateTranscription(ctx, openaigo.AudioRequest{
		Model:    m.transcriptionModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		m.logger.Error("Transcription request failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		mediaRequestsTotal.With(prometheus.Labels{"kind": "transcription", "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		mediaRequestsTotal.With(prometheus.Labels{"kind": "transcription", "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: пустая расшифровка", ErrTranscriptionFailed)
	}
	mediaRequestsTotal.With(prometheus.Labels{"kind": "transcription", "status": "success"}).Inc()
	m.logger.Debug("Transcription received", zap.Duration("duration", time.Since(start)), zap.Int("chars", len(text)))
	return text, nil
}

func (m *OpenAIMediaClient) GenerateImage(ctx context.Context, description, ref string) (string, error) {
	resp, err := m.client.CreateImage(ctx, openaigo.ImageRequest{
		Prompt:         buildImagePrompt(description),
		Model:          m.imageModel,
		N:              1,
		Size:           m.imageSize,
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		m.logger.Error("Image request failed", zap.String("ref", ref), zap.Error(err))
		mediaRequestsTotal.With(prometheus.Labels{"kind": "image", "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", ErrMediaGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		mediaRequestsTotal.With(prometheus.Labels{"kind": "image", "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: пустой ответ генерации изображения", ErrMediaGenerationFailed)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		mediaRequestsTotal.With(prometheus.Labels{"kind": "image", "status": "error_decode"}).Inc()
		return "", fmt.Errorf("%w: decode image: %v", ErrMediaGenerationFailed, err)
	}

	publicRef, err := m.writeFile("story_image_"+ref+".png", data)
	if err != nil {
		mediaRequestsTotal.With(prometheus.Labels{"kind": "image", "status": "error_write"}).Inc()
		return "", err
	}
	mediaRequestsTotal.With(prometheus.Labels{"kind": "image", "status": "success"}).Inc()
	return publicRef, nil
}

func (m *OpenAIMediaClient) GenerateVoiceover(ctx context.Context, text, ref string) (string, error) {
	resp, err := m.client.CreateSpeech(ctx, openaigo.CreateSpeechRequest{
		Model:          openaigo.SpeechModel(m.voiceModel),
		Input:          strings.TrimSpace(text),
		Voice:          openaigo.SpeechVoice(m.voiceName),
		ResponseFormat: openaigo.SpeechResponseFormatMp3,
	})
	if err != nil {
		m.logger.Error("Speech request failed", zap.String("ref", ref), zap.Error(err))
		mediaRequestsTotal.With(prometheus.Labels{"kind": "speech", "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", ErrMediaGenerationFailed, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		mediaRequestsTotal.With(prometheus.Labels{"kind": "speech", "status": "error_read"}).Inc()
		return "", fmt.Errorf("%w: read speech: %v", ErrMediaGenerationFailed, err)
	}
	if len(data) == 0 {
		mediaRequestsTotal.With(prometheus.Labels{"kind": "speech", "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: пустой ответ синтеза речи", ErrMediaGenerationFailed)
	}

	publicRef, err := m.writeFile("story_voice_"+ref+".mp3", data)
	if err != nil {
		mediaRequestsTotal.With(prometheus.Labels{"kind": "speech", "status": "error_write"}).Inc()
		return "", err
	}
	mediaRequestsTotal.With(prometheus.Labels{"kind": "speech", "status": "success"}).Inc()
	return publicRef, nil
}

// writeFile сохраняет файл в outputDir и возвращает ссылку под GeneratedURLPrefix.
func (m *OpenAIMediaClient) writeFile(name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(filepath.Join(m.outputDir, name), data, 0o644); err != nil {
		m.logger.Error("Failed to write generated file", zap.String("file", name), zap.Error(err))
		return "", fmt.Errorf("%w: write %s: %v", ErrMediaGenerationFailed, name, err)
	}
	return path.Join(GeneratedURLPrefix, name), nil
}
