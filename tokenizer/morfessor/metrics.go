package morfessor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wordsSegmented = promauto.NewCounter(prometheus.CounterOpts{
		Name: "morfsuite_words_segmented_total",
		Help: "Words segmented by the beam search",
	})

	hypothesesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "morfsuite_hypotheses_created_total",
		Help: "Partial segmentation hypotheses created by the beam search",
	})

	segmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "morfsuite_segment_duration_seconds",
		Help:    "Time spent segmenting a single word",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs to ~0.26s
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "morfsuite_segment_cache_lookups_total",
		Help: "Segmentation cache lookups by result",
	}, []string{"result"}) // "hit" or "miss"
)
