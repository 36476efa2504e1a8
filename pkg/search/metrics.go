package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ember-nexus/nexus-search/internal/build"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var (
	stepDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:                       build.ProjectName,
		Name:                            "step_duration_ms",
		Help:                            "The duration (in ms) of a single search step, partitioned by step type and outcome.",
		Buckets:                         []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: time.Hour,
	}, []string{"step_type", "outcome"})

	pipelineStepsHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: build.ProjectName,
		Name:      "pipeline_step_count",
		Help:      "The number of steps submitted per search request.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13},
	})
)
