package reminders

import (
	"context"
	"time"

	"turnero/internal/models"
)

// Notifier delivers a rendered reminder to a client's phone. The WhatsApp
// gateway behind it is an external collaborator; only this surface is
// assumed.
type Notifier interface {
	Send(ctx context.Context, phone string, message string) error
}

// AppointmentStore is the persistence surface the reminder loop reads.
type AppointmentStore interface {
	GetUpcomingUnreminded(ctx context.Context, lookAhead time.Duration) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

// ClientStore resolves the client behind an appointment.
type ClientStore interface {
	GetClient(ctx context.Context, id int64) (*models.Client, error)
}
