package worldbank

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esg",
		Subsystem: "worldbank",
		Name:      "fetch_requests_total",
		Help:      "Per-country indicator requests by outcome.",
	}, []string{"indicator", "status"})

	observationsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esg",
		Subsystem: "worldbank",
		Name:      "observations_fetched_total",
		Help:      "Raw observations returned by successful requests.",
	}, []string{"indicator"})
)
