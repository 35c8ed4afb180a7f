package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GamesStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebot_games_started_total",
			Help: "Games started, by game kind",
		},
		[]string{"game"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebot_games_finished_total",
			Help: "Games that ended, by game kind and outcome (win, loss, aborted)",
		},
		[]string{"game", "outcome"},
	)
	ActiveGames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamebot_active_games",
			Help: "Sessions currently bound to a game",
		},
	)
	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebot_events_total",
			Help: "Inbound user events, by transport and event type",
		},
		[]string{"transport", "event"},
	)
	HandlerFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebot_handler_faults_total",
			Help: "Game handler errors and panics contained by the dispatcher",
		},
		[]string{"game"},
	)
	DeliveryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebot_delivery_errors_total",
			Help: "Outbound messages that could not be delivered",
		},
		[]string{"transport", "op"},
	)
	FormatFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gamebot_markdown_fallbacks_total",
			Help: "Messages resent as plain text after markdown was rejected",
		},
	)

	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"scope"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(GamesStarted)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(ActiveGames)
	prometheus.MustRegister(Events)
	prometheus.MustRegister(HandlerFaults)
	prometheus.MustRegister(DeliveryErrors)
	prometheus.MustRegister(FormatFallbacks)
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
}
