// Package conversation routes inbound patient messages: an active booking
// session goes to the state machine, everything else to the intent
// classifier and the canned reply composer.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iconicmx/chatbot-platform/internal/booking"
	"github.com/iconicmx/chatbot-platform/internal/compose"
	"github.com/iconicmx/chatbot-platform/internal/intent"
	"github.com/iconicmx/chatbot-platform/internal/observability/metrics"
	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

// Notifier is told about confirmed bookings so staff can follow up.
// Advisory: failures never reach the patient.
type Notifier interface {
	BookingConfirmed(ctx context.Context, rec booking.Record)
}

// Service is the conversation entry point, explicitly constructed with its
// collaborators so tests can substitute fakes and instances can coexist.
type Service struct {
	classifier *intent.Classifier
	machine    *booking.Machine
	sessions   booking.SessionStore
	recorder   booking.Recorder
	composer   *compose.Composer
	notifier   Notifier
	transcript *TranscriptStore
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger
	locks      *userLocks
}

// ServiceConfig bundles the collaborators of a Service. Notifier, Transcript
// and Metrics are optional.
type ServiceConfig struct {
	Classifier *intent.Classifier
	Machine    *booking.Machine
	Sessions   booking.SessionStore
	Recorder   booking.Recorder
	Composer   *compose.Composer
	Notifier   Notifier
	Transcript *TranscriptStore
	Metrics    *metrics.ConversationMetrics
	Logger     *logging.Logger
}

// NewService constructs a conversation service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Classifier == nil || cfg.Machine == nil || cfg.Sessions == nil || cfg.Recorder == nil || cfg.Composer == nil {
		panic("conversation: classifier, machine, sessions, recorder and composer required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		classifier: cfg.Classifier,
		machine:    cfg.Machine,
		sessions:   cfg.Sessions,
		recorder:   cfg.Recorder,
		composer:   cfg.Composer,
		notifier:   cfg.Notifier,
		transcript: cfg.Transcript,
		metrics:    cfg.Metrics,
		logger:     logger,
		locks:      newUserLocks(),
	}
}

// Respond processes one inbound message for userID and returns the reply.
// Deliveries for the same user are serialized; userID stays opaque except
// for coarse channel diagnostics in logs.
func (s *Service) Respond(ctx context.Context, userID, text string) (compose.Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return compose.Reply{}, fmt.Errorf("conversation: userID required")
	}

	lock := s.locks.acquire(userID)
	defer s.locks.release(userID, lock)

	s.appendTranscript(ctx, userID, "user", text)

	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return compose.Reply{}, fmt.Errorf("conversation: load session: %w", err)
	}

	var reply compose.Reply
	if sess != nil {
		reply, err = s.advanceBooking(ctx, sess, text)
	} else {
		reply, err = s.dispatchIntent(ctx, userID, text)
	}
	if err != nil {
		return compose.Reply{}, err
	}

	s.appendTranscript(ctx, userID, "assistant", reply.Text)
	return reply, nil
}

// advanceBooking runs one step of the booking flow and applies the outcome
// to the session store and the persistence collaborator.
func (s *Service) advanceBooking(ctx context.Context, sess *booking.Session, text string) (compose.Reply, error) {
	before := sess.Step
	out := s.machine.Advance(sess, text)
	reply := out.Reply

	switch {
	case out.Reset:
		s.metrics.ObserveSessionReset()
		s.logger.Error("unrecognized booking step, session reset",
			"user_id", sess.UserID, "step", string(before), "channel", channelOf(sess.UserID))
	case reply.Kind == compose.KindAppointmentError:
		s.metrics.ObserveValidationFailure(string(before))
		s.logger.Info("booking validation failed",
			"user_id", sess.UserID, "step", string(before))
	default:
		s.metrics.ObserveStepTransition(string(before), string(sess.Step))
		s.logger.Info("booking step advanced",
			"user_id", sess.UserID, "from", string(before), "to", string(sess.Step))
	}

	if out.Done {
		if err := s.sessions.Delete(ctx, sess.UserID); err != nil {
			s.logger.Error("failed to delete finished session", "user_id", sess.UserID, "error", err)
		}
	} else {
		sess.UpdatedAt = time.Now().UTC()
		if err := s.sessions.Put(ctx, sess); err != nil {
			return compose.Reply{}, fmt.Errorf("conversation: store session: %w", err)
		}
	}

	if out.Completed != nil {
		if err := s.recorder.Record(ctx, *out.Completed); err != nil {
			// The booking is confirmed from the patient's point of view;
			// tell them to verify instead of silently dropping it.
			s.metrics.ObserveBooking("persist_failed")
			s.logger.Error("failed to persist confirmed booking",
				"user_id", sess.UserID, "booking_id", out.Completed.ID, "error", err)
			return s.composer.PersistenceWarning(), nil
		}
		s.metrics.ObserveBooking("confirmed")
		s.logger.Info("booking confirmed",
			"user_id", sess.UserID, "booking_id", out.Completed.ID, "procedure", out.Completed.Procedure)
		if s.notifier != nil {
			s.notifier.BookingConfirmed(ctx, *out.Completed)
		}
	} else if out.Done && !out.Reset {
		s.metrics.ObserveBooking("cancelled")
		s.logger.Info("booking cancelled", "user_id", sess.UserID)
	}

	return reply, nil
}

// dispatchIntent classifies a fresh message and builds the canned reply,
// opening a booking session on Appointment intent.
func (s *Service) dispatchIntent(ctx context.Context, userID, text string) (compose.Reply, error) {
	in := s.classifier.Classify(text)
	s.metrics.ObserveIntent(string(in))
	s.logger.Info("intent classified", "user_id", userID, "intent", string(in), "channel", channelOf(userID))

	if in != intent.IntentAppointment {
		return s.composer.ForIntent(in, text), nil
	}

	sess := &booking.Session{
		UserID:    userID,
		Step:      booking.StepAwaitingName,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return compose.Reply{}, fmt.Errorf("conversation: create session: %w", err)
	}
	return s.composer.FlowStart(), nil
}

func (s *Service) appendTranscript(ctx context.Context, userID, role, body string) {
	if s.transcript == nil || body == "" {
		return
	}
	if err := s.transcript.Append(ctx, userID, Message{Role: role, Body: body}); err != nil {
		s.logger.Warn("failed to append transcript", "user_id", userID, "error", err)
	}
}

// channelOf extracts a coarse channel tag from the opaque user identity for
// diagnostics only. Never used for logic branching.
func channelOf(userID string) string {
	if i := strings.Index(userID, ":"); i > 0 {
		return userID[:i]
	}
	return "unknown"
}
