package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adventure_sessions_started_total",
		Help: "Total number of started story sessions.",
	})

	audioUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adventure_audio_uploads_total",
			Help: "Total number of audio uploads by status.",
		},
		[]string{"status"},
	)
)
