// Package metrics holds the prometheus collectors of cersei.
// Collectors live on a private registry served by the query API at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cersei"

// Registry is the registry every cersei collector is registered on.
var Registry = prometheus.NewRegistry()

var (
	// Commits counts commit attempts by outcome: committed, unchanged, failed.
	Commits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commits_total",
		Help:      "Entry commits by outcome.",
	}, []string{"outcome"})

	// CommitDuration observes the wall time of one commit.
	CommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "commit_duration_seconds",
		Help:      "Time to commit one entry.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	// PrunedRevisions counts superseded revisions deleted by prune runs.
	PrunedRevisions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pruned_revisions_total",
		Help:      "Superseded revisions deleted.",
	})

	// ResolverLookups counts resolver lookups by where they were answered and the result.
	ResolverLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolver_lookups_total",
		Help:      "Resolver lookups by source (memo, cache, corpus) and result.",
	}, []string{"source", "result"})

	// Promotions counts free-text rows handled by promotion sweeps.
	Promotions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "freetext_promotions_total",
		Help:      "Free-text rows promoted to items, or skipped as ambiguous.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		Commits,
		CommitDuration,
		PrunedRevisions,
		ResolverLookups,
		Promotions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
