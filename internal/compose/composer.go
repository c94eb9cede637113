package compose

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/iconicmx/chatbot-platform/internal/availability"
	"github.com/iconicmx/chatbot-platform/internal/catalog"
	"github.com/iconicmx/chatbot-platform/internal/intent"
)

// Composer renders replies from the content catalog. It is safe for
// concurrent use as long as pick is.
type Composer struct {
	catalog *catalog.Catalog
	pick    func(n int) int
}

// NewComposer creates a composer over the given catalog. The greeting variant
// is chosen uniformly at random; this is the only non-deterministic choice in
// the reply path.
func NewComposer(cat *catalog.Catalog) *Composer {
	return &Composer{catalog: cat, pick: rand.Intn}
}

// WithPicker overrides the greeting selector, used by tests for determinism.
func (c *Composer) WithPicker(pick func(n int) int) *Composer {
	c.pick = pick
	return c
}

// ForIntent renders the canned reply family for a classified intent.
// originalText is only consulted for the Fallback FAQ search.
func (c *Composer) ForIntent(in intent.Intent, originalText string) Reply {
	switch in {
	case intent.IntentGreeting:
		return c.Greeting()
	case intent.IntentServices:
		return c.Services()
	case intent.IntentPrices:
		return c.Prices()
	case intent.IntentDoctors:
		return c.Doctors()
	case intent.IntentLocation:
		return c.Location()
	case intent.IntentThanks:
		return c.Thanks()
	default:
		return c.Fallback(originalText)
	}
}

// Greeting picks a greeting variant and appends the menu options.
func (c *Composer) Greeting() Reply {
	greeting := c.catalog.Greetings[c.pick(len(c.catalog.Greetings))]
	text := greeting + "\n\n" + strings.Join(c.catalog.MenuOptions, "\n")
	return Reply{Kind: KindGreeting, Text: text}
}

// Services lists the procedure catalog.
func (c *Composer) Services() Reply {
	var b strings.Builder
	b.WriteString(c.catalog.ServicesTitle)
	b.WriteString("\n\n")
	for _, p := range c.catalog.Procedures {
		fmt.Fprintf(&b, "• **%s** - %s\n", p.DisplayName, p.Description)
	}
	b.WriteString("\n")
	b.WriteString(c.catalog.ServicesNote)
	return Reply{Kind: KindServices, Text: b.String()}
}

// Prices returns the pricing disclaimer with its action buttons.
func (c *Composer) Prices() Reply {
	buttons := make([]Button, len(c.catalog.PricingButtons))
	for i, btn := range c.catalog.PricingButtons {
		buttons[i] = Button{Label: btn.Label, Payload: btn.Payload}
	}
	return Reply{Kind: KindPrices, Text: c.catalog.PricingDisclaimer, Buttons: buttons}
}

// Doctors renders the specialist roster.
func (c *Composer) Doctors() Reply {
	var b strings.Builder
	b.WriteString(c.catalog.SpecialistsTitle)
	b.WriteString("\n\n")
	for _, s := range c.catalog.Specialists {
		fmt.Fprintf(&b, "**%s**\n%s\n%s\n%s\n\n", s.Name, s.Specialty, s.Experience, s.Certification)
	}
	return Reply{Kind: KindDoctors, Text: strings.TrimRight(b.String(), "\n")}
}

// Location renders address, hours and contact.
func (c *Composer) Location() Reply {
	loc := c.catalog.Location
	text := fmt.Sprintf("%s\n\n⏰ **Horarios:**\n%s\n%s\n%s\n\n%s",
		loc.Address, loc.Hours.Weekdays, loc.Hours.Saturday, loc.Hours.Sunday, loc.Contact)
	return Reply{Kind: KindLocation, Text: text}
}

// Thanks returns the courtesy reply.
func (c *Composer) Thanks() Reply {
	return Reply{Kind: KindThanks, Text: c.catalog.ThanksReply}
}

// Fallback searches the FAQ table by keyword before giving up with the
// generic reply plus the first three menu options.
func (c *Composer) Fallback(originalText string) Reply {
	msg := strings.ToLower(strings.TrimSpace(originalText))
	if msg != "" {
		for _, entry := range c.catalog.FAQ {
			for _, kw := range entry.Keywords {
				if strings.Contains(msg, kw) {
					return Reply{Kind: KindFAQ, Text: entry.Answer}
				}
			}
		}
	}
	text := c.catalog.FallbackReply + "\n\n" + strings.Join(c.catalog.MenuOptions[:3], "\n")
	return Reply{Kind: KindFallback, Text: text}
}

// FlowStart renders the booking overview and the first question.
func (c *Composer) FlowStart() Reply {
	text := "🎯 " + strings.Join(c.catalog.Booking.Overview, "\n") + "\n\n" + c.catalog.Booking.AskName
	return Reply{Kind: KindAppointmentStep, Text: text, Step: 1}
}

// AskPhone prompts for the phone number.
func (c *Composer) AskPhone(name string) Reply {
	text := fmt.Sprintf("¡Gracias, %s! %s", name, c.catalog.Booking.AskPhone)
	return Reply{Kind: KindAppointmentStep, Text: text, Step: 2}
}

// AskEmail prompts for the email address.
func (c *Composer) AskEmail() Reply {
	return Reply{Kind: KindAppointmentStep, Text: c.catalog.Booking.AskEmail, Step: 3}
}

// ProcedureMenu renders the numbered procedure selection.
func (c *Composer) ProcedureMenu() Reply {
	var b strings.Builder
	b.WriteString(c.catalog.Booking.AskProcedure)
	b.WriteString("\n\n")
	for i, p := range c.catalog.Procedures {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, p.DisplayName, p.Description)
	}
	return Reply{Kind: KindAppointmentStep, Text: strings.TrimRight(b.String(), "\n"), Step: 4}
}

// DateMenu renders the numbered date selection over the first three slots.
func (c *Composer) DateMenu(slots []availability.Slot) Reply {
	var b strings.Builder
	b.WriteString(c.catalog.Booking.AskDate)
	b.WriteString("\n\n")
	limit := len(slots)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		fmt.Fprintf(&b, "%d. %s\n", i+1, FormatDate(slots[i].Date))
	}
	return Reply{Kind: KindAppointmentStep, Text: strings.TrimRight(b.String(), "\n"), Step: 5}
}

// TimeMenu renders the numbered time selection for the chosen date.
func (c *Composer) TimeMenu(date time.Time, times []string) Reply {
	var b strings.Builder
	fmt.Fprintf(&b, c.catalog.Booking.AskTime, FormatDate(date))
	b.WriteString("\n\n")
	for i, t := range times {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return Reply{Kind: KindAppointmentStep, Text: strings.TrimRight(b.String(), "\n"), Step: 6}
}

// ConfirmSummary renders the collected booking data for final confirmation.
func (c *Composer) ConfirmSummary(name, phone, email, procedure string, date time.Time, timeSlot string) Reply {
	text := fmt.Sprintf("%s\n\n👤 Nombre: %s\n📞 Teléfono: %s\n📧 Email: %s\n🏥 Procedimiento: %s\n📅 Fecha: %s\n⏰ Hora: %s\n\n%s",
		c.catalog.Booking.ConfirmLeadIn, name, phone, email, procedure, FormatDate(date), timeSlot,
		c.catalog.Booking.ConfirmHint)
	return Reply{Kind: KindAppointmentStep, Text: text, Step: 7}
}

// StepError re-prompts the current step with a validation message.
func (c *Composer) StepError(step int, msg string) Reply {
	return Reply{Kind: KindAppointmentError, Text: msg, Step: step}
}

// Confirmed renders the terminal confirmation reply.
func (c *Composer) Confirmed() Reply {
	return Reply{Kind: KindAppointmentConfirmed, Text: c.catalog.Booking.Confirmed}
}

// Cancelled renders the terminal cancellation reply.
func (c *Composer) Cancelled() Reply {
	return Reply{Kind: KindAppointmentCancelled, Text: c.catalog.Booking.Cancelled}
}

// Restarted is the neutral reply for the session-reset safety net.
func (c *Composer) Restarted() Reply {
	return Reply{Kind: KindFallback, Text: c.catalog.Booking.Restarted}
}

// PersistenceWarning tells the patient the confirmation was received but
// could not be registered, instead of silently dropping the booking.
func (c *Composer) PersistenceWarning() Reply {
	return Reply{Kind: KindAppointmentConfirmed, Text: c.catalog.Booking.PersistFailure}
}
