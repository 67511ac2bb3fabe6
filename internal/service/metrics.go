package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_ai_requests_total",
			Help: "Total number of requests to the narrative AI backend.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_ai_request_duration_seconds",
			Help:    "Histogram of narrative AI request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20), // 250, 500, ..., 5000
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adventure_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(25, 25, 16), // 25, 50, ..., 400
		},
		[]string{"model"},
	)

	mediaRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_media_requests_total",
			Help: "Total number of transcription, image and speech requests.",
		},
		[]string{"kind", "status"},
	)

	storyTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_story_turns_total",
			Help: "Story turns by outcome.",
		},
		[]string{"outcome"}, // continued, concluded, empty_input, invalid_transition, generation_failed
	)
	dedupRemovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adventure_dedup_inputs_trimmed_total",
			Help: "Number of user inputs from which repeated history was removed.",
		},
	)
)
