package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters for the bot's conversational flows.
// Purely advisory: no control flow depends on them.
type ConversationMetrics struct {
	intentsTotal       *prometheus.CounterVec
	stepTransitions    *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	sessionResets      prometheus.Counter
	inboundTotal       *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iconic",
			Subsystem: "bot",
			Name:      "intents_total",
			Help:      "Messages classified per intent",
		}, []string{"intent"}),
		stepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iconic",
			Subsystem: "bot",
			Name:      "booking_step_transitions_total",
			Help:      "Booking step transitions",
		}, []string{"from", "to"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iconic",
			Subsystem: "bot",
			Name:      "booking_validation_failures_total",
			Help:      "Validation failures per booking step",
		}, []string{"step"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iconic",
			Subsystem: "bot",
			Name:      "bookings_total",
			Help:      "Booking flows finished per outcome",
		}, []string{"outcome"}),
		sessionResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iconic",
			Subsystem: "bot",
			Name:      "session_resets_total",
			Help:      "Sessions reset by the unrecognized-step safety net",
		}),
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iconic",
			Subsystem: "bot",
			Name:      "inbound_messages_total",
			Help:      "Inbound messages per channel and status",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.intentsTotal, m.stepTransitions, m.validationFailures,
		m.bookingsTotal, m.sessionResets, m.inboundTotal,
	)
	return m
}

func (m *ConversationMetrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *ConversationMetrics) ObserveStepTransition(from, to string) {
	if m == nil {
		return
	}
	m.stepTransitions.WithLabelValues(from, to).Inc()
}

func (m *ConversationMetrics) ObserveValidationFailure(step string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(step).Inc()
}

func (m *ConversationMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *ConversationMetrics) ObserveSessionReset() {
	if m == nil {
		return
	}
	m.sessionResets.Inc()
}

func (m *ConversationMetrics) ObserveInbound(channel, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(channel, status).Inc()
}
