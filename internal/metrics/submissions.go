package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// submissionsAccepted counts submissions that were persisted.
	submissionsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formsink",
		Subsystem: "submissions",
		Name:      "accepted_total",
		Help:      "Form submissions accepted and persisted.",
	}, []string{"form_name"})

	// submissionsRejected counts submissions turned away, by failure kind.
	submissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formsink",
		Subsystem: "submissions",
		Name:      "rejected_total",
		Help:      "Form submissions rejected before persistence.",
	}, []string{"reason"})

	// submissionsBot counts honeypot hits (silently accepted, never persisted).
	submissionsBot = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "formsink",
		Subsystem: "submissions",
		Name:      "bot_total",
		Help:      "Submissions dropped by the honeypot filter.",
	})

	// notifications counts email notification attempts by result.
	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "formsink",
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Email notification attempts by result (ok, failed).",
	}, []string{"result"})
)

// IncAccepted records a persisted submission for a form.
func IncAccepted(formName string) { submissionsAccepted.WithLabelValues(formName).Inc() }

// IncRejected records a rejected submission with its failure reason.
func IncRejected(reason string) { submissionsRejected.WithLabelValues(reason).Inc() }

// IncBot records a honeypot hit.
func IncBot() { submissionsBot.Inc() }

// IncNotification records a notification attempt result.
func IncNotification(result string) { notifications.WithLabelValues(result).Inc() }
