package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practica_logins_total",
			Help: "Login attempts by kind (student, staff) and outcome",
		},
		[]string{"kind", "outcome"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practica_exports_total",
			Help: "Applicant export requests by outcome",
		},
		[]string{"outcome"},
	)

	exportBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "practica_export_bytes_total",
			Help: "Bytes of applicant exports written to clients, aborted streams included",
		},
	)

	cvOrphansDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "practica_cv_orphans_deleted_total",
			Help: "CV files removed because no profile referenced them",
		},
	)
)

// loginOutcome labels a login result for loginsTotal.
func loginOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if ae := asAuthError(err); ae != nil {
		return ae.Kind.String()
	}
	return "error"
}
