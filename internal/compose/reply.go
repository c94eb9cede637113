// Package compose renders matched intents and booking step outcomes into
// user-facing replies using the clinic content catalog.
package compose

// Kind discriminates the reply variants. Buttons are only populated for
// KindPrices; Step only for the appointment kinds.
type Kind string

const (
	KindGreeting             Kind = "greeting"
	KindServices             Kind = "services"
	KindPrices               Kind = "prices"
	KindDoctors              Kind = "doctors"
	KindAppointmentStep      Kind = "appointment_step"
	KindAppointmentError     Kind = "appointment_error"
	KindAppointmentConfirmed Kind = "appointment_confirmed"
	KindAppointmentCancelled Kind = "appointment_cancelled"
	KindLocation             Kind = "location"
	KindThanks               Kind = "thanks"
	KindFAQ                  Kind = "faq"
	KindFallback             Kind = "fallback"
)

// Button is a suggested action the channel may render as a quick reply.
type Button struct {
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// Reply is the structured outcome returned to the transport layer.
type Reply struct {
	Kind    Kind     `json:"kind"`
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
	Step    int      `json:"step,omitempty"`
}
