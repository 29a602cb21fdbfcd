// Package reminders runs the periodic loop sending appointment reminders
// through the configured notifier.
package reminders

import (
	"context"
	"sync"
	"text/template"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"turnero/internal/metrics"
	"turnero/internal/models"
)

// Config holds configuration for the reminder service.
type Config struct {
	// CheckInterval is how often to scan for upcoming appointments.
	// Default: 15 minutes.
	CheckInterval time.Duration

	// HoursBefore is how long before the start a reminder goes out.
	// Default: 24 hours.
	HoursBefore int

	// SendsPerSecond paces outgoing messages. Default: 5.
	SendsPerSecond float64

	// Template overrides the default reminder text.
	Template string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CheckInterval:  15 * time.Minute,
		HoursBefore:    24,
		SendsPerSecond: 5,
	}
}

// Service sends reminders for confirmed appointments.
type Service struct {
	config       *Config
	appointments AppointmentStore
	clients      ClientStore
	notifier     Notifier
	limiter      *rate.Limiter
	tmpl         *template.Template
	log          *zerolog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewService creates a reminder service.
func NewService(config *Config, appointments AppointmentStore, clients ClientStore, notifier Notifier, log *zerolog.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = 15 * time.Minute
	}
	if config.HoursBefore <= 0 {
		config.HoursBefore = 24
	}
	if config.SendsPerSecond <= 0 {
		config.SendsPerSecond = 5
	}

	tmpl, err := ParseTemplate(config.Template)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:       config,
		appointments: appointments,
		clients:      clients,
		notifier:     notifier,
		limiter:      rate.NewLimiter(rate.Limit(config.SendsPerSecond), 1),
		tmpl:         tmpl,
		log:          log,
		stopCh:       make(chan struct{}),
	}, nil
}

// Start begins the reminder check loop.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.log.Info().
		Str("check_interval", formatLookAhead(s.config.CheckInterval)).
		Int("hours_before", s.config.HoursBefore).
		Msg("reminder service started")
}

// Stop gracefully stops the reminder service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.log.Info().Msg("reminder service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	s.CheckNow()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.CheckNow()
		}
	}
}

// CheckNow scans once and sends due reminders. Exported for tests and for
// event-driven triggers.
func (s *Service) CheckNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// One extra hour of look-ahead so a reminder is never missed between ticks.
	lookAhead := time.Duration(s.config.HoursBefore+1) * time.Hour

	upcoming, err := s.appointments.GetUpcomingUnreminded(ctx, lookAhead)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load upcoming appointments")
		return
	}
	if len(upcoming) == 0 {
		return
	}

	for i := range upcoming {
		a := &upcoming[i]

		reminderTime := a.StartTime.Add(-time.Duration(s.config.HoursBefore) * time.Hour)
		if time.Now().Before(reminderTime) {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		if err := s.sendReminder(ctx, a); err != nil {
			metrics.IncReminderOutcome("failed")
			s.log.Error().Err(err).
				Int64("turno_id", a.ID).
				Msg("failed to send reminder")
		}
	}
}

func (s *Service) sendReminder(ctx context.Context, a *models.Appointment) error {
	client, err := s.clients.GetClient(ctx, a.ClientID)
	if err != nil {
		return err
	}

	message, err := RenderMessage(s.tmpl, client, a)
	if err != nil {
		return err
	}

	if err := s.notifier.Send(ctx, client.Phone, message); err != nil {
		return err
	}

	if err := s.appointments.MarkReminderSent(ctx, a.ID); err != nil {
		// Notification went out; log and move on rather than resending later.
		s.log.Error().Err(err).
			Int64("turno_id", a.ID).
			Msg("failed to mark reminder as sent")
	}

	metrics.IncReminderOutcome("sent")
	s.log.Info().
		Int64("turno_id", a.ID).
		Int64("client_id", a.ClientID).
		Msg("reminder sent")
	return nil
}
