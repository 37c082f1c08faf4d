package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	momentsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymatrix_moments_ingested_total",
		Help: "Total number of moments added to the gallery.",
	})

	momentsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymatrix_moments_deleted_total",
		Help: "Total number of moments deleted from the gallery.",
	})

	storiesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymatrix_stories_created_total",
		Help: "Total number of created stories.",
	})

	momentsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymatrix_moments_saved_total",
		Help: "Total number of editor saves.",
	})

	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storymatrix_transfers_total",
			Help: "Total number of export/import attempts by direction and status.",
		},
		[]string{"direction", "status"},
	)

	playbackKeysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storymatrix_playback_actions_total",
			Help: "Total number of playback navigation actions by action.",
		},
		[]string{"action"},
	)

	activeDrags = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storymatrix_active_drags",
		Help: "Number of drag sessions holding pointer listeners.",
	})

	typewriterStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storymatrix_typewriter_streams",
		Help: "Number of open typewriter WebSocket streams.",
	})
)

// DragListeners учитывает активные подписки перетаскивания в метрике.
type DragListeners struct{}

func (DragListeners) Attach() { activeDrags.Inc() }
func (DragListeners) Detach() { activeDrags.Dec() }
