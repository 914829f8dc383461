package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks quiz sessions currently held in memory.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Number of quiz sessions currently active in memory",
		},
	)

	// ConnectedChannels tracks registered participant channels across all quizzes.
	ConnectedChannels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_connected_channels",
			Help: "Number of participant channels registered across all quiz sessions",
		},
	)

	// AnswersTotal tracks answer submissions by result.
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Answer submissions by result (accepted/duplicate/invalid/error)",
		},
		[]string{"result"},
	)

	// EventsBroadcast tracks events fanned out to channels by type.
	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_events_broadcast_total",
			Help: "Events delivered to participant channels by type",
		},
		[]string{"type"},
	)

	// ChannelEvictions tracks channels dropped because a send failed.
	ChannelEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_channel_evictions_total",
			Help: "Channels evicted because their send buffer was full or closed",
		},
	)

	// SessionEvictions tracks idle sessions discarded after the retention window.
	SessionEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_session_evictions_total",
			Help: "Idle quiz sessions evicted after the retention window",
		},
	)
)
