package steps

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ember-nexus/nexus-search/internal/build"
)

var forbiddenKeywordCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: build.ProjectName,
	Name:      "forbidden_keyword_total",
	Help:      "The total number of path queries rejected because of a forbidden keyword.",
}, []string{"keyword"})
