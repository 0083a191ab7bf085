package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tachi-protocol/crawlgate/internal/models"
)

var (
	// RequestsTotal counts gateway requests to protected paths by outcome:
	// challenged, served, rejected, unknown_path.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawlgate_requests_total",
		Help: "Requests to protected paths by outcome",
	}, []string{"outcome"})

	// VerificationsTotal counts payment verifications by result: valid, or
	// one of the closed failure kinds.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawlgate_verifications_total",
		Help: "Payment verifications by result",
	}, []string{"result"})

	// CrawlRecordFailuresTotal counts best-effort crawl record writes that
	// failed. These never affect responses.
	CrawlRecordFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlgate_crawl_record_failures_total",
		Help: "Failed best-effort crawl record writes",
	})
)

// ObserveVerification records a verification result.
func ObserveVerification(result *models.VerificationResult) {
	if result.Valid {
		VerificationsTotal.WithLabelValues("valid").Inc()
		return
	}
	VerificationsTotal.WithLabelValues(string(result.Reason)).Inc()
}
