// Package metrics collects and exposes Prometheus metrics for the account
// lifecycle operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the API layer records operation outcomes
// through
type Recorder interface {
	RecordSignup(outcome string)
	RecordLogin(outcome string)
	RecordDeletion(outcome string)
	RecordUpload(outcome string)
	WatchOpened()
	WatchClosed()
}

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Collector is the Prometheus-backed Recorder implementation
type Collector struct {
	signups     *prometheus.CounterVec
	logins      *prometheus.CounterVec
	deletions   *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	openWatches prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_signups_total",
			Help: "Signup attempts by outcome",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_account_deletions_total",
			Help: "Account deletion attempts by outcome",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_picture_uploads_total",
			Help: "Profile picture upload attempts by outcome",
		}, []string{"outcome"}),
		openWatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userhub_open_profile_watches",
			Help: "Currently open profile watch streams",
		}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.deletions,
		c.uploads,
		c.openWatches,
	)

	return c
}

// RecordSignup records a signup attempt
func (c *Collector) RecordSignup(outcome string) {
	c.signups.WithLabelValues(outcome).Inc()
}

// RecordLogin records a login attempt
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordDeletion records an account deletion attempt
func (c *Collector) RecordDeletion(outcome string) {
	c.deletions.WithLabelValues(outcome).Inc()
}

// RecordUpload records a picture upload attempt
func (c *Collector) RecordUpload(outcome string) {
	c.uploads.WithLabelValues(outcome).Inc()
}

// WatchOpened records an opened profile watch stream
func (c *Collector) WatchOpened() {
	c.openWatches.Inc()
}

// WatchClosed records a closed profile watch stream
func (c *Collector) WatchClosed() {
	c.openWatches.Dec()
}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
