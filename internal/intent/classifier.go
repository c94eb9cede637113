// Package intent maps free-text patient messages to coarse reply categories.
package intent

import "strings"

// Intent is the coarse category of an inbound message.
type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentServices    Intent = "services"
	IntentPrices      Intent = "prices"
	IntentDoctors     Intent = "doctors"
	IntentAppointment Intent = "appointment"
	IntentLocation    Intent = "location"
	IntentThanks      Intent = "thanks"
	IntentFallback    Intent = "fallback"
)

// rule pairs an intent with its trigger keywords. Rules are evaluated in
// declaration order: when a message matches keywords from several categories,
// the category declared earliest wins. The order is a contract, never derived
// from map iteration.
type rule struct {
	intent   Intent
	keywords []string
}

// Classifier performs ordered substring keyword matching.
type Classifier struct {
	rules []rule
}

// NewClassifier returns a classifier with the clinic's default keyword rules.
func NewClassifier() *Classifier {
	return &Classifier{
		rules: []rule{
			{IntentGreeting, []string{"hola", "buenos días", "buenos dias", "buenas tardes", "buenas noches", "hi", "hello", "qué tal", "que tal"}},
			{IntentServices, []string{"servicio", "procedimiento", "operación", "operacion", "qué hacen", "que hacen", "qué ofrecen", "que ofrecen"}},
			{IntentPrices, []string{"precio", "costo", "cuánto cuesta", "cuanto cuesta", "tarifa", "presupuesto"}},
			{IntentDoctors, []string{"doctor", "médico", "medico", "especialista", "quién opera", "quien opera", "dra.", "dr."}},
			{IntentAppointment, []string{"agendar", "cita", "consulta", "reservar", "quiero una cita"}},
			{IntentLocation, []string{"dónde están", "donde estan", "ubicación", "ubicacion", "dirección", "direccion", "cómo llegar", "como llegar", "horario"}},
			{IntentThanks, []string{"gracias", "thank you", "agradecido", "te lo agradezco"}},
		},
	}
}

// Classify returns the first intent whose keyword set matches the message.
// Matching is case-folded substring containment; no match yields Fallback.
// Pure function: classifying the same message twice yields the same intent.
func (c *Classifier) Classify(text string) Intent {
	msg := strings.ToLower(strings.TrimSpace(text))
	if msg == "" {
		return IntentFallback
	}
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(msg, kw) {
				return r.intent
			}
		}
	}
	return IntentFallback
}
