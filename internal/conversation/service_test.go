package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iconicmx/chatbot-platform/internal/availability"
	"github.com/iconicmx/chatbot-platform/internal/booking"
	"github.com/iconicmx/chatbot-platform/internal/catalog"
	"github.com/iconicmx/chatbot-platform/internal/compose"
	"github.com/iconicmx/chatbot-platform/internal/intent"
)

type stubSlots struct{}

func (stubSlots) Current() []availability.Slot {
	base := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	times := []string{"10:00", "12:00", "15:00", "17:00"}
	return []availability.Slot{
		{Date: base, Times: times},
		{Date: base.AddDate(0, 0, 1), Times: times},
		{Date: base.AddDate(0, 0, 2), Times: times},
	}
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, booking.Record) error {
	return errors.New("database unavailable")
}

type spyNotifier struct {
	mu      sync.Mutex
	records []booking.Record
}

func (n *spyNotifier) BookingConfirmed(_ context.Context, rec booking.Record) {
	n.mu.Lock()
	n.records = append(n.records, rec)
	n.mu.Unlock()
}

type testEnv struct {
	service  *Service
	sessions *booking.MemoryStore
	recorder *booking.MemoryRecorder
	notifier *spyNotifier
	catalog  *catalog.Catalog
}

func newTestEnv(t *testing.T, recorder booking.Recorder) *testEnv {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	composer := compose.NewComposer(cat).WithPicker(func(int) int { return 0 })
	machine := booking.NewMachine(cat, stubSlots{}, composer)
	sessions := booking.NewMemoryStore(30 * time.Minute)
	memRecorder, _ := recorder.(*booking.MemoryRecorder)
	notifier := &spyNotifier{}

	svc := NewService(ServiceConfig{
		Classifier: intent.NewClassifier(),
		Machine:    machine,
		Sessions:   sessions,
		Recorder:   recorder,
		Composer:   composer,
		Notifier:   notifier,
	})
	return &testEnv{service: svc, sessions: sessions, recorder: memRecorder, notifier: notifier, catalog: cat}
}

func TestRespondIntentReplies(t *testing.T) {
	env := newTestEnv(t, booking.NewMemoryRecorder())
	ctx := context.Background()

	tests := []struct {
		text string
		want compose.Kind
	}{
		{"hola", compose.KindGreeting},
		{"qué servicios tienen", compose.KindServices},
		{"cuánto cuesta", compose.KindPrices},
		{"quién es el doctor", compose.KindDoctors},
		{"dónde están ubicados", compose.KindLocation},
		{"gracias", compose.KindThanks},
		{"asdfgh", compose.KindFallback},
	}
	for _, tt := range tests {
		reply, err := env.service.Respond(ctx, "web:u1", tt.text)
		if err != nil {
			t.Fatalf("Respond(%q): %v", tt.text, err)
		}
		if reply.Kind != tt.want {
			t.Errorf("Respond(%q) kind = %q, want %q", tt.text, reply.Kind, tt.want)
		}
	}
}

func TestRespondRequiresUserID(t *testing.T) {
	env := newTestEnv(t, booking.NewMemoryRecorder())
	if _, err := env.service.Respond(context.Background(), "  ", "hola"); err == nil {
		t.Fatal("expected error for empty userID")
	}
}

func TestRespondFullBookingConversation(t *testing.T) {
	env := newTestEnv(t, booking.NewMemoryRecorder())
	ctx := context.Background()
	userID := "whatsapp:+5215512345678"

	say := func(text string) compose.Reply {
		t.Helper()
		reply, err := env.service.Respond(ctx, userID, text)
		if err != nil {
			t.Fatalf("Respond(%q): %v", text, err)
		}
		return reply
	}

	if reply := say("quiero agendar una cita"); reply.Kind != compose.KindAppointmentStep || reply.Step != 1 {
		t.Fatalf("flow start = kind %q step %d", reply.Kind, reply.Step)
	}

	// Mid-flow, everything is consumed by the machine, even messages that
	// look like intents.
	if reply := say("hola, me llamo María López"); reply.Step != 2 {
		t.Fatalf("name step reply = %+v", reply)
	}

	// Invalid phone re-prompts without advancing.
	if reply := say("abc123"); reply.Kind != compose.KindAppointmentError || reply.Step != 2 {
		t.Fatalf("invalid phone reply = %+v", reply)
	}
	if reply := say("551-234-5678"); reply.Step != 3 {
		t.Fatalf("phone step reply = %+v", reply)
	}
	if reply := say("maria@gmail.com"); reply.Step != 4 {
		t.Fatalf("email step reply = %+v", reply)
	}
	if reply := say("1"); reply.Step != 5 {
		t.Fatalf("procedure step reply = %+v", reply)
	}
	if reply := say("2"); reply.Step != 6 {
		t.Fatalf("date step reply = %+v", reply)
	}
	if reply := say("3"); reply.Step != 7 {
		t.Fatalf("time step reply = %+v", reply)
	}

	reply := say("sí")
	if reply.Kind != compose.KindAppointmentConfirmed {
		t.Fatalf("confirmation reply kind = %q", reply.Kind)
	}

	records := env.recorder.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Name != "hola, me llamo María López" {
		t.Errorf("name = %q (the name step takes the message verbatim)", rec.Name)
	}
	if rec.Phone != "+5512345678" || rec.Email != "maria@gmail.com" || rec.Procedure != "Rinoplastia" {
		t.Errorf("record = %+v", rec)
	}
	if rec.TimeSlot != "15:00" {
		t.Errorf("time slot = %q", rec.TimeSlot)
	}
	if rec.UserID != userID {
		t.Errorf("record userID = %q", rec.UserID)
	}

	if len(env.notifier.records) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(env.notifier.records))
	}

	// The session is gone: the next message is classified again.
	if reply := say("hola"); reply.Kind != compose.KindGreeting {
		t.Errorf("post-confirmation reply kind = %q, want greeting", reply.Kind)
	}
}

func TestRespondCancellationRecordsNothing(t *testing.T) {
	env := newTestEnv(t, booking.NewMemoryRecorder())
	ctx := context.Background()
	userID := "web:u2"

	inputs := []string{"agendar", "Ana Ruiz", "5512345678", "ana@gmail.com", "2", "1", "1"}
	for _, in := range inputs {
		if _, err := env.service.Respond(ctx, userID, in); err != nil {
			t.Fatalf("Respond(%q): %v", in, err)
		}
	}

	reply, err := env.service.Respond(ctx, userID, "mejor no")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if reply.Kind != compose.KindAppointmentCancelled {
		t.Fatalf("reply kind = %q", reply.Kind)
	}
	if got := len(env.recorder.Records()); got != 0 {
		t.Errorf("records = %d, want 0", got)
	}
	if len(env.notifier.records) != 0 {
		t.Error("notifier called for a cancelled booking")
	}
	if sess, _ := env.sessions.Get(ctx, userID); sess != nil {
		t.Error("session survived cancellation")
	}
}

func TestRespondPersistenceFailureWarnsPatient(t *testing.T) {
	env := newTestEnv(t, failingRecorder{})
	ctx := context.Background()
	userID := "web:u3"

	inputs := []string{"agendar", "Ana Ruiz", "5512345678", "ana@gmail.com", "2", "1", "1"}
	for _, in := range inputs {
		if _, err := env.service.Respond(ctx, userID, in); err != nil {
			t.Fatalf("Respond(%q): %v", in, err)
		}
	}

	reply, err := env.service.Respond(ctx, userID, "sí")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if reply.Kind != compose.KindAppointmentConfirmed {
		t.Fatalf("reply kind = %q", reply.Kind)
	}
	if reply.Text != env.catalog.Booking.PersistFailure {
		t.Errorf("reply text = %q, want the persistence warning", reply.Text)
	}
	if len(env.notifier.records) != 0 {
		t.Error("notifier called despite persistence failure")
	}
}

func TestRespondSessionsAreIndependentPerUser(t *testing.T) {
	env := newTestEnv(t, booking.NewMemoryRecorder())
	ctx := context.Background()

	if _, err := env.service.Respond(ctx, "web:a", "agendar"); err != nil {
		t.Fatal(err)
	}

	// A second user is classified normally while the first is mid-flow.
	reply, err := env.service.Respond(ctx, "web:b", "hola")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Kind != compose.KindGreeting {
		t.Errorf("user b reply kind = %q", reply.Kind)
	}

	// The first user's next message still feeds the booking flow.
	reply, err = env.service.Respond(ctx, "web:a", "hola")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Kind != compose.KindAppointmentStep || reply.Step != 2 {
		t.Errorf("user a reply = %+v, want phone step", reply)
	}
}

func TestRespondSerializesPerUser(t *testing.T) {
	env := newTestEnv(t, booking.NewMemoryRecorder())
	ctx := context.Background()
	userID := "web:concurrent"

	if _, err := env.service.Respond(ctx, userID, "agendar"); err != nil {
		t.Fatal(err)
	}

	// Concurrent deliveries of the flow inputs must each land on a distinct
	// step; serialization means no input is lost or doubly applied.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.service.Respond(ctx, userID, fmt.Sprintf("Paciente %d", i))
			if err != nil {
				t.Errorf("concurrent respond: %v", err)
			}
		}(i)
	}
	wg.Wait()

	sess, err := env.sessions.Get(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil {
		t.Fatal("session vanished")
	}
	// The first delivery consumed the name step; the rest failed phone
	// validation and re-prompted, leaving the session on the phone step.
	if sess.Step != booking.StepAwaitingPhone {
		t.Errorf("step = %q, want %q", sess.Step, booking.StepAwaitingPhone)
	}
	if !strings.HasPrefix(sess.Record.Name, "Paciente ") {
		t.Errorf("name = %q", sess.Record.Name)
	}
}

func TestChannelOf(t *testing.T) {
	tests := []struct {
		userID string
		want   string
	}{
		{"whatsapp:+5215512345678", "whatsapp"},
		{"webchat:abc123", "webchat"},
		{"web:anonymous", "web"},
		{"noprefix", "unknown"},
	}
	for _, tt := range tests {
		if got := channelOf(tt.userID); got != tt.want {
			t.Errorf("channelOf(%q) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}
