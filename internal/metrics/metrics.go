package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal     *prometheus.CounterVec
	slackEventsTotal      *prometheus.CounterVec
	votesCastTotal        prometheus.Counter
	votesFinalizedTotal   *prometheus.CounterVec
	notifyFailuresTotal   *prometheus.CounterVec
	remindersSentTotal    *prometheus.CounterVec
	pendingFinalizerGauge prometheus.Gauge
	registerOnce          sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scrumbot",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the ops API.",
		}, []string{"method", "path", "status"})
		slackEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scrumbot",
			Name:      "slack_events_total",
			Help:      "Socket mode events dispatched, by kind and outcome.",
		}, []string{"kind", "outcome"})
		votesCastTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "scrumbot",
			Name:      "votes_cast_total",
			Help:      "Ballot button clicks applied to an active vote.",
		})
		votesFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scrumbot",
			Name:      "votes_finalized_total",
			Help:      "Votes finalized, by trigger.",
		}, []string{"trigger"})
		notifyFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scrumbot",
			Name:      "notification_failures_total",
			Help:      "Failed Slack API calls, by operation.",
		}, []string{"op"})
		remindersSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scrumbot",
			Name:      "scrum_reminders_total",
			Help:      "Scrum reminders attempted, by outcome.",
		}, []string{"outcome"})
		pendingFinalizerGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "scrumbot",
			Name:      "pending_vote_finalizers",
			Help:      "Vote deadline timers currently armed.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncSlackEvent(kind, outcome string) {
	if slackEventsTotal == nil {
		return
	}
	slackEventsTotal.WithLabelValues(kind, outcome).Inc()
}

func IncVoteCast() {
	if votesCastTotal == nil {
		return
	}
	votesCastTotal.Inc()
}

func IncVoteFinalized(trigger string) {
	if votesFinalizedTotal == nil {
		return
	}
	votesFinalizedTotal.WithLabelValues(trigger).Inc()
}

func IncNotificationFailure(op string) {
	if notifyFailuresTotal == nil {
		return
	}
	notifyFailuresTotal.WithLabelValues(op).Inc()
}

func IncReminder(outcome string) {
	if remindersSentTotal == nil {
		return
	}
	remindersSentTotal.WithLabelValues(outcome).Inc()
}

func SetPendingFinalizers(n int) {
	if pendingFinalizerGauge == nil {
		return
	}
	pendingFinalizerGauge.Set(float64(n))
}
