package notify

import (
	"context"
	"fmt"

	"github.com/iconicmx/chatbot-platform/internal/booking"
	"github.com/iconicmx/chatbot-platform/internal/compose"
	"github.com/iconicmx/chatbot-platform/pkg/logging"
)

// MessageSender sends a WhatsApp text, implemented by messaging.WhatsAppSender.
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) error
}

// Service fans a confirmed booking out to the configured staff channels.
type Service struct {
	email      EmailSender
	whatsapp   MessageSender
	recipients []string
	staffPhone string
	logger     *logging.Logger
}

// NewService builds a notification service. Either sender may be nil.
func NewService(email EmailSender, whatsapp MessageSender, recipients []string, staffPhone string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		whatsapp:   whatsapp,
		recipients: recipients,
		staffPhone: staffPhone,
		logger:     logger,
	}
}

// BookingConfirmed notifies staff about a new confirmed booking. Failures
// are logged and swallowed.
func (s *Service) BookingConfirmed(ctx context.Context, rec booking.Record) {
	summary := fmt.Sprintf(
		"Nueva cita confirmada (%s)\n\nPaciente: %s\nTeléfono: %s\nEmail: %s\nProcedimiento: %s\nFecha: %s\nHora: %s",
		rec.ID, rec.Name, rec.Phone, rec.Email, rec.Procedure, compose.FormatDate(rec.Date), rec.TimeSlot,
	)

	if s.email != nil {
		for _, to := range s.recipients {
			if err := s.email.Send(ctx, EmailMessage{
				To:      to,
				Subject: "Nueva cita confirmada - " + rec.Name,
				Body:    summary,
			}); err != nil {
				s.logger.Error("booking notification email failed", "to", to, "booking_id", rec.ID, "error", err)
			}
		}
	}

	if s.whatsapp != nil && s.staffPhone != "" {
		if err := s.whatsapp.SendMessage(ctx, s.staffPhone, summary); err != nil {
			s.logger.Error("booking notification whatsapp failed", "to", s.staffPhone, "booking_id", rec.ID, "error", err)
		}
	}
}
