// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ballot", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
	BallotsCast = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ballot", Name: "ballots_cast_total", Help: "Ballots committed",
	})
	BallotRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ballot", Name: "ballot_rejections_total", Help: "Cast attempts rejected, by error kind",
	}, []string{"kind"})
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ballot", Name: "tokens_issued_total", Help: "Token issuance calls, by source and whether a token was created",
	}, []string{"source", "created"})
	RegistrationsReviewed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ballot", Name: "registrations_reviewed_total", Help: "Candidate registrations reviewed, by outcome",
	}, []string{"status"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ballot", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, BallotsCast, BallotRejections, TokensIssued, RegistrationsReviewed, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

func ObserveRequest(method string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

func ObserveRejection(kind string) { BallotRejections.WithLabelValues(kind).Inc() }

func ObserveTokenIssued(source string, created bool) {
	TokensIssued.WithLabelValues(source, strconv.FormatBool(created)).Inc()
}

func ObserveRegistrationReviewed(status string) { RegistrationsReviewed.WithLabelValues(status).Inc() }
