// Package booking owns the appointment dialogue: the per-user session, the
// step-by-step state machine that collects booking data, and the persistence
// of confirmed bookings.
package booking

// Step is the position within the fixed, linear appointment dialogue.
type Step string

const (
	StepAwaitingName         Step = "awaiting_name"
	StepAwaitingPhone        Step = "awaiting_phone"
	StepAwaitingEmail        Step = "awaiting_email"
	StepAwaitingProcedure    Step = "awaiting_procedure"
	StepAwaitingDate         Step = "awaiting_date"
	StepAwaitingTime         Step = "awaiting_time"
	StepAwaitingConfirmation Step = "awaiting_confirmation"

	// Terminal outcomes. Sessions never persist in these states: the store
	// entry is removed the moment the flow reaches them.
	StepConfirmed Step = "confirmed"
	StepCancelled Step = "cancelled"
)

// Number returns the 1-based position of a collecting step, or 0 for
// terminal or unrecognized values.
func (s Step) Number() int {
	switch s {
	case StepAwaitingName:
		return 1
	case StepAwaitingPhone:
		return 2
	case StepAwaitingEmail:
		return 3
	case StepAwaitingProcedure:
		return 4
	case StepAwaitingDate:
		return 5
	case StepAwaitingTime:
		return 6
	case StepAwaitingConfirmation:
		return 7
	default:
		return 0
	}
}

// Terminal reports whether the step ends the flow.
func (s Step) Terminal() bool {
	return s == StepConfirmed || s == StepCancelled
}
