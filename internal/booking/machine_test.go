package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/iconicmx/chatbot-platform/internal/availability"
	"github.com/iconicmx/chatbot-platform/internal/catalog"
	"github.com/iconicmx/chatbot-platform/internal/compose"
)

type stubSlots struct {
	slots []availability.Slot
}

func (s stubSlots) Current() []availability.Slot { return s.slots }

func fixedSlots() []availability.Slot {
	base := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	times := []string{"10:00", "12:00", "15:00", "17:00"}
	return []availability.Slot{
		{Date: base, Times: times},
		{Date: base.AddDate(0, 0, 1), Times: times},
		{Date: base.AddDate(0, 0, 2), Times: times},
		{Date: base.AddDate(0, 0, 3), Times: times},
	}
}

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	composer := compose.NewComposer(cat).WithPicker(func(int) int { return 0 })
	return NewMachine(cat, stubSlots{slots: fixedSlots()}, composer).
		WithNow(func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) })
}

func newSession(step Step) *Session {
	return &Session{UserID: "whatsapp:+5215512345678", Step: step}
}

func TestAdvanceFullFlow(t *testing.T) {
	m := newTestMachine(t)
	sess := newSession(StepAwaitingName)

	steps := []struct {
		input    string
		wantStep Step
	}{
		{"María López", StepAwaitingPhone},
		{"55 1234 5678", StepAwaitingEmail},
		{"maria@gmail.com", StepAwaitingProcedure},
		{"1", StepAwaitingDate},
		{"2", StepAwaitingTime},
		{"3", StepAwaitingConfirmation},
	}
	for _, st := range steps {
		out := m.Advance(sess, st.input)
		if out.Done || out.Completed != nil {
			t.Fatalf("flow finished early at input %q", st.input)
		}
		if sess.Step != st.wantStep {
			t.Fatalf("after input %q step = %q, want %q", st.input, sess.Step, st.wantStep)
		}
		if out.Reply.Kind != compose.KindAppointmentStep {
			t.Fatalf("after input %q reply kind = %q", st.input, out.Reply.Kind)
		}
	}

	out := m.Advance(sess, "sí")
	if !out.Done {
		t.Fatal("confirmation did not finish the flow")
	}
	if out.Completed == nil {
		t.Fatal("confirmation produced no completed record")
	}
	if out.Reply.Kind != compose.KindAppointmentConfirmed {
		t.Errorf("reply kind = %q, want %q", out.Reply.Kind, compose.KindAppointmentConfirmed)
	}

	rec := out.Completed
	if rec.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("completed record has zero ID")
	}
	if rec.UserID != sess.UserID {
		t.Errorf("record userID = %q, want %q", rec.UserID, sess.UserID)
	}
	if rec.Name != "María López" {
		t.Errorf("record name = %q", rec.Name)
	}
	if rec.Phone != "+5512345678" {
		t.Errorf("record phone = %q, want +5512345678", rec.Phone)
	}
	if rec.Email != "maria@gmail.com" {
		t.Errorf("record email = %q", rec.Email)
	}
	if rec.Procedure != "Rinoplastia" {
		t.Errorf("record procedure = %q, want Rinoplastia", rec.Procedure)
	}
	wantDate := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(wantDate) {
		t.Errorf("record date = %s, want %s", rec.Date, wantDate)
	}
	if rec.TimeSlot != "15:00" {
		t.Errorf("record time = %q, want 15:00", rec.TimeSlot)
	}
	if rec.ConfirmedAt.IsZero() {
		t.Error("record confirmedAt is zero")
	}
}

func TestAdvanceConfirmationVariants(t *testing.T) {
	tests := []struct {
		input       string
		wantConfirm bool
	}{
		{"sí", true},
		{"si", true},
		{"SÍ", true},
		{" si ", true},
		{"no", false},
		{"claro", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestMachine(t)
			sess := newSession(StepAwaitingConfirmation)
			sess.Record = Record{Name: "Ana", Phone: "+5512345678", Email: "ana@gmail.com"}

			out := m.Advance(sess, tt.input)
			if !out.Done {
				t.Fatal("confirmation step did not finish the flow")
			}
			if tt.wantConfirm {
				if out.Completed == nil {
					t.Fatal("expected completed record")
				}
				if sess.Step != StepConfirmed {
					t.Errorf("step = %q, want %q", sess.Step, StepConfirmed)
				}
			} else {
				if out.Completed != nil {
					t.Fatal("cancellation produced a record")
				}
				if sess.Step != StepCancelled {
					t.Errorf("step = %q, want %q", sess.Step, StepCancelled)
				}
				if out.Reply.Kind != compose.KindAppointmentCancelled {
					t.Errorf("reply kind = %q", out.Reply.Kind)
				}
			}
		})
	}
}

func TestAdvanceValidationKeepsStep(t *testing.T) {
	tests := []struct {
		name  string
		step  Step
		input string
	}{
		{"empty name", StepAwaitingName, "   "},
		{"bad phone", StepAwaitingPhone, "abc123"},
		{"short phone", StepAwaitingPhone, "123"},
		{"bad email", StepAwaitingEmail, "not-an-email"},
		{"blocked email", StepAwaitingEmail, "a@test.com"},
		{"procedure out of range", StepAwaitingProcedure, "99"},
		{"procedure not numeric", StepAwaitingProcedure, "rinoplastia"},
		{"date out of range", StepAwaitingDate, "4"},
		{"time out of range", StepAwaitingTime, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t)
			sess := newSession(tt.step)
			if tt.step == StepAwaitingTime {
				sess.TimeOptions = []string{"10:00", "12:00"}
			}
			before := sess.Record

			out := m.Advance(sess, tt.input)
			if out.Done {
				t.Fatal("validation failure finished the flow")
			}
			if sess.Step != tt.step {
				t.Errorf("step advanced to %q on invalid input", sess.Step)
			}
			if sess.Record != before {
				t.Error("record mutated on invalid input")
			}
			if out.Reply.Kind != compose.KindAppointmentError {
				t.Errorf("reply kind = %q, want %q", out.Reply.Kind, compose.KindAppointmentError)
			}
			if out.Reply.Step != tt.step.Number() {
				t.Errorf("reply step = %d, want %d", out.Reply.Step, tt.step.Number())
			}
		})
	}
}

func TestAdvanceTimeUsesPinnedOptions(t *testing.T) {
	m := newTestMachine(t)
	sess := newSession(StepAwaitingTime)
	sess.TimeOptions = []string{"10:00", "12:00"}

	// Option 3 exists in the live calendar but not in the pinned set.
	out := m.Advance(sess, "3")
	if out.Reply.Kind != compose.KindAppointmentError {
		t.Fatalf("selection beyond pinned options accepted, kind = %q", out.Reply.Kind)
	}

	out = m.Advance(sess, "2")
	if sess.Record.TimeSlot != "12:00" {
		t.Errorf("time slot = %q, want 12:00", sess.Record.TimeSlot)
	}
	if sess.Step != StepAwaitingConfirmation {
		t.Errorf("step = %q, want %q", sess.Step, StepAwaitingConfirmation)
	}
	if !strings.Contains(out.Reply.Text, "12:00") {
		t.Errorf("summary does not mention the chosen time: %q", out.Reply.Text)
	}
}

func TestAdvanceUnknownStepResets(t *testing.T) {
	m := newTestMachine(t)
	sess := newSession(Step("legacy_step"))

	out := m.Advance(sess, "hola")
	if !out.Done || !out.Reset {
		t.Fatalf("unknown step outcome = %+v, want Done and Reset", out)
	}
	if out.Completed != nil {
		t.Error("reset produced a record")
	}
}
