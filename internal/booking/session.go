package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record accumulates the patient data collected across booking steps. Each
// field is set exactly once as its step is passed; the flow is strictly
// forward and never overwrites a field.
type Record struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Procedure   string    `json:"procedure"`
	Date        time.Time `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Session is the per-user in-progress booking state, keyed by the opaque
// user identity the channel provides.
type Session struct {
	UserID string `json:"user_id"`
	Step   Step   `json:"step"`
	Record Record `json:"record"`

	// TimeOptions pins the slot set of the selected date so the time
	// selection stays consistent even if the calendar rolls over between
	// messages.
	TimeOptions []string  `json:"time_options,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionStore maps user identity to in-progress booking state. A session
// lives from Appointment intent until a terminal step, a reset, or idle
// expiry, whichever comes first.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, userID string) error
}
