// Package booking implements the availability and booking workflow on top
// of the hours resolver and the slot generator.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"turnero/internal/apperr"
	"turnero/internal/cache"
	"turnero/internal/events"
	"turnero/internal/hours"
	"turnero/internal/metrics"
	"turnero/internal/models"
	"turnero/internal/slots"
)

// Store is the persistence surface the booking flow needs.
type Store interface {
	hours.ScheduleStore

	GetNonCancelledAppointments(ctx context.Context, date time.Time) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status string) error

	GetTreatmentsByIDs(ctx context.Context, ids []int64) ([]models.Treatment, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)

	CreatePayment(ctx context.Context, p *models.Payment) error
	OutstandingBalance(ctx context.Context, appointmentID int64) (float64, error)
}

// Service runs availability lookups and validated bookings.
type Service struct {
	store    Store
	resolver *hours.Resolver
	cache    *cache.AvailabilityCache
	bus      *events.EventBus
	log      *zerolog.Logger
}

// NewService wires the booking service.
func NewService(store Store, resolver *hours.Resolver, availCache *cache.AvailabilityCache, bus *events.EventBus, log *zerolog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		cache:    availCache,
		bus:      bus,
		log:      log,
	}
}

// CreateTurnoRequest is the validated input for a booking submission.
type CreateTurnoRequest struct {
	ClientID     int64
	TreatmentIDs []int64
	Date         time.Time
	Start        string // "HH:MM"
	Notes        string
}

// EffectiveHours resolves the opening hours for a date.
func (s *Service) EffectiveHours(ctx context.Context, date time.Time) (*models.EffectiveHours, error) {
	return s.resolver.Resolve(ctx, date)
}

// DurationForTreatments sums the duration of the selected treatments.
func (s *Service) DurationForTreatments(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, apperr.Validation("at least one treatment is required")
	}
	treatments, err := s.store.GetTreatmentsByIDs(ctx, ids)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("one or more treatments do not exist")
		}
		return 0, fmt.Errorf("load treatments: %w", err)
	}
	total := 0
	for _, t := range treatments {
		if !t.Active {
			return 0, apperr.Validation("treatment %q is not offered anymore", t.Name)
		}
		total += t.DurationMinutes
	}
	if total <= 0 {
		return 0, apperr.Validation("selected treatments have no duration")
	}
	return total, nil
}

// Availability returns the slot list for a date and required duration.
// Served from the cache when possible; a closed day yields an empty list.
func (s *Service) Availability(ctx context.Context, date time.Time, durationMinutes int) ([]models.Slot, error) {
	if durationMinutes <= 0 {
		return nil, apperr.Validation("duration must be positive")
	}
	metrics.IncAvailabilityRequest()

	day := models.DateOnly(date)
	if cached, ok := s.cache.GetSlots(ctx, day, durationMinutes); ok {
		return cached, nil
	}

	generated, err := s.computeSlots(ctx, day, durationMinutes)
	if err != nil {
		return nil, err
	}
	s.cache.SetSlots(ctx, day, durationMinutes, generated)
	return generated, nil
}

// computeSlots derives the slot list from fresh occupancy, bypassing the
// cache. This is the single canonical slot derivation shared by the
// preview and the submission-time re-check.
func (s *Service) computeSlots(ctx context.Context, day time.Time, durationMinutes int) ([]models.Slot, error) {
	effective, err := s.resolver.Resolve(ctx, day)
	if err != nil {
		return nil, err
	}
	if effective.Closed || len(effective.Windows) == 0 {
		return []models.Slot{}, nil
	}

	appointments, err := s.store.GetNonCancelledAppointments(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load occupancy: %w", err)
	}
	occupied := slots.OccupiedTicks(appointments)

	generated := slots.Generate(effective.Windows, durationMinutes, occupied)
	if generated == nil {
		generated = []models.Slot{}
	}
	return generated, nil
}

// CreateTurno books an appointment. The chosen start is re-validated
// against a freshly derived slot list at submission time, so a slot taken
// between preview and submission is rejected with a conflict.
func (s *Service) CreateTurno(ctx context.Context, req CreateTurnoRequest) (*models.Appointment, error) {
	if _, err := s.store.GetClient(ctx, req.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("client %d does not exist", req.ClientID)
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	duration, err := s.DurationForTreatments(ctx, req.TreatmentIDs)
	if err != nil {
		return nil, err
	}

	startClock, err := models.ParseClock(req.Start)
	if err != nil {
		return nil, apperr.Validation("invalid start time %q", req.Start)
	}

	day := models.DateOnly(req.Date)
	fresh, err := s.computeSlots(ctx, day, duration)
	if err != nil {
		return nil, err
	}

	var chosen *models.Slot
	for i := range fresh {
		if fresh[i].Start == req.Start {
			chosen = &fresh[i]
			break
		}
	}
	if chosen == nil {
		return nil, apperr.Validation("%s is not a bookable start for this date", req.Start)
	}
	if !chosen.Available {
		metrics.IncBookingConflict()
		return nil, apperr.Conflict("the %s slot was just taken, please pick another time", req.Start)
	}

	start := day.Add(time.Duration(startClock) * time.Minute)
	appointment := &models.Appointment{
		ClientID:     req.ClientID,
		TreatmentIDs: req.TreatmentIDs,
		StartTime:    start,
		EndTime:      start.Add(time.Duration(duration) * time.Minute),
		Status:       models.StatusPending,
		Notes:        req.Notes,
	}
	if err := s.store.CreateAppointment(ctx, appointment); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.cache.InvalidateDate(ctx, day)
	metrics.IncTurnoCreated(appointment.Status)
	if s.bus != nil {
		_ = s.bus.PublishJSON(events.TypeTurnoCreated, appointment)
	}
	s.log.Info().
		Int64("turno_id", appointment.ID).
		Int64("client_id", appointment.ClientID).
		Time("start", appointment.StartTime).
		Int("duration_min", duration).
		Msg("turno created")

	return appointment, nil
}

// UpdateStatus moves an appointment to a new status within the closed enum.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.Appointment, error) {
	if !models.ValidStatuses[status] {
		return nil, apperr.Validation("unknown status %q", status)
	}

	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("turno %d does not exist", id)
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appointment.Status == status {
		return appointment, nil
	}
	if appointment.Status == models.StatusCanceled {
		return nil, apperr.Validation("turno %d is canceled and cannot change status", id)
	}

	if err := s.store.UpdateAppointmentStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	appointment.Status = status

	if status == models.StatusCanceled {
		// Cancelling releases the interval, so cached slot lists are stale.
		s.cache.InvalidateDate(ctx, models.DateOnly(appointment.StartTime))
		if s.bus != nil {
			_ = s.bus.PublishJSON(events.TypeTurnoCanceled, appointment)
		}
	}

	s.log.Info().
		Int64("turno_id", id).
		Str("status", status).
		Msg("turno status updated")
	return appointment, nil
}

// CancelTurno cancels an appointment.
func (s *Service) CancelTurno(ctx context.Context, id int64) (*models.Appointment, error) {
	return s.UpdateStatus(ctx, id, models.StatusCanceled)
}

// RegisterPayment records a payment, rejecting amounts above the
// appointment's outstanding balance.
func (s *Service) RegisterPayment(ctx context.Context, appointmentID int64, amount float64, method string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, apperr.Validation("payment amount must be positive")
	}

	if _, err := s.store.GetAppointment(ctx, appointmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("turno %d does not exist", appointmentID)
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	outstanding, err := s.store.OutstandingBalance(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("outstanding balance: %w", err)
	}
	if amount > outstanding+0.001 {
		return nil, apperr.Validation("payment %.2f exceeds outstanding balance %.2f", amount, outstanding)
	}

	if method == "" {
		method = "cash"
	}
	payment := &models.Payment{
		AppointmentID: appointmentID,
		Amount:        amount,
		Method:        method,
		PaidAt:        time.Now(),
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.log.Info().
		Int64("turno_id", appointmentID).
		Float64("amount", amount).
		Str("method", method).
		Msg("payment registered")
	return payment, nil
}
