// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeStatus    = "status"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arxiv_digest",
		Subsystem: "fetch",
		Name:      "attempts_total",
		Help:      "Requests issued per route, partitioned by outcome.",
	}, []string{"route", "outcome"})

	exhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "arxiv_digest",
		Subsystem: "fetch",
		Name:      "exhausted_total",
		Help:      "Fetches where every route failed.",
	})
)
