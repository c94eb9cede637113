package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iconicmx/chatbot-platform/internal/availability"
	"github.com/iconicmx/chatbot-platform/internal/catalog"
	"github.com/iconicmx/chatbot-platform/internal/compose"
)

// dateChoices is how many upcoming dates are offered for selection.
const dateChoices = 3

// affirmativeTokens confirm the booking at the confirmation step. Anything
// else cancels.
var affirmativeTokens = map[string]struct{}{
	"si": {},
	"sí": {},
}

// Outcome is the result of advancing a session by one step.
type Outcome struct {
	Reply compose.Reply
	// Completed is the finished record when the flow reached confirmation.
	Completed *Record
	// Done means the session must be removed from the store.
	Done bool
	// Reset marks the unrecognized-step safety net. It is never triggered
	// by user input; its occurrence signals a logic bug upstream.
	Reset bool
}

// Machine advances a booking session by exactly one step per message.
// Validation failures re-prompt the same step and leave both the step and the
// record untouched.
type Machine struct {
	catalog  *catalog.Catalog
	slots    availability.Provider
	composer *compose.Composer
	nowFn    func() time.Time
}

// NewMachine constructs the booking state machine.
func NewMachine(cat *catalog.Catalog, slots availability.Provider, composer *compose.Composer) *Machine {
	return &Machine{
		catalog:  cat,
		slots:    slots,
		composer: composer,
		nowFn:    time.Now,
	}
}

// WithNow overrides the clock, used by tests.
func (m *Machine) WithNow(nowFn func() time.Time) *Machine {
	m.nowFn = nowFn
	return m
}

// Advance consumes one message for the session's current step, mutating the
// session in place. The caller persists or deletes the session according to
// the outcome and hands Completed records to the persistence collaborator.
func (m *Machine) Advance(sess *Session, text string) Outcome {
	input := strings.TrimSpace(text)

	switch sess.Step {
	case StepAwaitingName:
		if input == "" {
			return m.retry(sess, "Por favor escribe tu nombre completo:")
		}
		sess.Record.Name = input
		sess.Step = StepAwaitingPhone
		return Outcome{Reply: m.composer.AskPhone(sess.Record.Name)}

	case StepAwaitingPhone:
		phone, err := NormalizePhone(input)
		if err != nil {
			return m.retry(sess, phoneErrorMessage(err))
		}
		sess.Record.Phone = phone
		sess.Step = StepAwaitingEmail
		return Outcome{Reply: m.composer.AskEmail()}

	case StepAwaitingEmail:
		email, err := NormalizeEmail(input)
		if err != nil {
			return m.retry(sess, emailErrorMessage(err))
		}
		sess.Record.Email = email
		sess.Step = StepAwaitingProcedure
		return Outcome{Reply: m.composer.ProcedureMenu()}

	case StepAwaitingProcedure:
		n := len(m.catalog.Procedures)
		idx, ok := parseSelection(input, n)
		if !ok {
			return m.retry(sess, fmt.Sprintf("Por favor selecciona un número entre 1 y %d.", n))
		}
		sess.Record.Procedure = m.catalog.Procedures[idx-1].DisplayName
		sess.Step = StepAwaitingDate
		return Outcome{Reply: m.composer.DateMenu(m.slots.Current())}

	case StepAwaitingDate:
		slots := m.slots.Current()
		limit := dateChoices
		if len(slots) < limit {
			limit = len(slots)
		}
		idx, ok := parseSelection(input, limit)
		if !ok {
			return m.retry(sess, fmt.Sprintf("Por favor selecciona un número entre 1 y %d.", limit))
		}
		chosen := slots[idx-1]
		sess.Record.Date = chosen.Date
		sess.TimeOptions = append([]string(nil), chosen.Times...)
		sess.Step = StepAwaitingTime
		return Outcome{Reply: m.composer.TimeMenu(chosen.Date, chosen.Times)}

	case StepAwaitingTime:
		idx, ok := parseSelection(input, len(sess.TimeOptions))
		if !ok {
			return m.retry(sess, fmt.Sprintf("Por favor selecciona un número entre 1 y %d.", len(sess.TimeOptions)))
		}
		sess.Record.TimeSlot = sess.TimeOptions[idx-1]
		sess.Step = StepAwaitingConfirmation
		rec := sess.Record
		return Outcome{Reply: m.composer.ConfirmSummary(rec.Name, rec.Phone, rec.Email, rec.Procedure, rec.Date, rec.TimeSlot)}

	case StepAwaitingConfirmation:
		if _, yes := affirmativeTokens[strings.ToLower(input)]; yes {
			sess.Step = StepConfirmed
			rec := sess.Record
			rec.ID = uuid.New()
			rec.UserID = sess.UserID
			rec.ConfirmedAt = m.nowFn().UTC()
			return Outcome{Reply: m.composer.Confirmed(), Completed: &rec, Done: true}
		}
		sess.Step = StepCancelled
		return Outcome{Reply: m.composer.Cancelled(), Done: true}

	default:
		// Corrupted or unknown step. Should be unreachable; reset the
		// session rather than trap the user in a broken flow.
		return Outcome{Reply: m.composer.Restarted(), Done: true, Reset: true}
	}
}

// retry re-prompts the current step without advancing or mutating the record.
func (m *Machine) retry(sess *Session, msg string) Outcome {
	return Outcome{Reply: m.composer.StepError(sess.Step.Number(), msg)}
}

// parseSelection parses a 1-based numeric selection bounded by max.
func parseSelection(input string, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

func phoneErrorMessage(err error) string {
	if err == ErrPhoneLength {
		return "El teléfono debe tener entre 8 y 15 dígitos. Inténtalo de nuevo:"
	}
	return "El teléfono solo debe contener dígitos (puedes usar espacios o guiones). Inténtalo de nuevo:"
}

func emailErrorMessage(err error) string {
	if err == ErrEmailBlockedDomain {
		return "No aceptamos correos de dominios temporales o de prueba. Por favor usa tu correo personal:"
	}
	return "Ese correo no parece válido (ej. nombre@dominio.com). Inténtalo de nuevo:"
}
