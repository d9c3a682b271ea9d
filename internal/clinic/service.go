package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fxanimal/dentists/internal/config"
	"github.com/fxanimal/dentists/internal/metrics"
	redisclient "github.com/fxanimal/dentists/internal/redis"
)

var (
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.ClinicMetrics
	now     func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger, m *metrics.ClinicMetrics) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		cfg:     cfg,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Book resolves the patient by email (creating one on first booking), claims
// the requested slot, and creates the pending appointment. Two concurrent
// requests for the same slot cannot both succeed: the per-slot Redis lock
// serializes bookers, and the conditional is_booked update inside the store
// transaction rejects the loser even if the lock expires mid-flight.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if err := validateBookingRequest(req); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}

	slot, err := s.repo.GetOpenSlotByTime(ctx, req.AppointmentTime)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			s.metrics.ObserveBooking("unavailable")
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	patient, err := s.resolvePatient(ctx, req)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slot.ID, func(lockCtx context.Context) error {
		appt, err := s.repo.BookSlot(lockCtx, slot.ID, patient.ID, slot.SlotDateTime, req.Reason, req.Phone)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.metrics.ObserveBooking("contended")
			return nil, ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotUnavailable) {
			s.metrics.ObserveBooking("unavailable")
			return nil, ErrSlotUnavailable
		}
		s.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("book slot: %w", err)
	}

	s.metrics.ObserveBooking("booked")
	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("patient_id", patient.ID.String()).
		Str("slot_id", slot.ID.String()).
		Time("appointment_time", created.AppointmentTime).
		Bool("is_new_patient", req.IsNewPatient).
		Msg("appointment booked")

	return &BookingResult{
		PatientID:     patient.ID,
		AppointmentID: created.ID,
		SlotID:        slot.ID,
	}, nil
}

// resolvePatient is an idempotent get-or-create keyed on email. A concurrent
// first booking with the same new email loses the unique-index race and
// falls back to the row the winner created.
func (s *Service) resolvePatient(ctx context.Context, req BookingRequest) (*Patient, error) {
	patient, err := s.repo.GetPatientByEmail(ctx, req.Email)
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	patient, err = s.repo.CreatePatient(ctx, req.FullName, req.Email, req.Phone)
	if err == nil {
		s.log.Info().Str("patient_id", patient.ID.String()).Msg("patient created")
		return patient, nil
	}
	if errors.Is(err, ErrEmailTaken) {
		return s.repo.GetPatientByEmail(ctx, req.Email)
	}
	return nil, fmt.Errorf("create patient: %w", err)
}

// AvailableSlots returns unbooked slots in [start, end], ascending by time.
func (s *Service) AvailableSlots(ctx context.Context, start, end time.Time) ([]TimeSlot, error) {
	if start.IsZero() || end.IsZero() {
		return nil, invalid("range", "start and end are required")
	}
	if end.Before(start) {
		return nil, invalid("range", "end must not precede start")
	}
	return s.repo.ListAvailableSlots(ctx, start, end)
}

// ActiveDentists returns all dentists accepting appointments.
func (s *Service) ActiveDentists(ctx context.Context) ([]Dentist, error) {
	return s.repo.ListActiveDentists(ctx)
}

// ClinicInfo returns the singleton clinic configuration, or nil when none
// has been seeded yet.
func (s *Service) ClinicInfo(ctx context.Context) (*ClinicSettings, error) {
	settings, err := s.repo.GetClinicSettings(ctx)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load clinic settings: %w", err)
	}
	return settings, nil
}

// PatientAppointments returns the appointments for the patient registered
// under email. An unknown email yields an empty list, not an error.
func (s *Service) PatientAppointments(ctx context.Context, email string) ([]Appointment, error) {
	patient, err := s.repo.GetPatientByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return s.repo.ListAppointmentsByPatient(ctx, patient.ID)
}

// TodayAppointments returns all appointments within the current calendar
// day, local server time, unfiltered by status.
func (s *Service) TodayAppointments(ctx context.Context) ([]Appointment, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	return s.repo.ListAppointmentsBetween(ctx, dayStart, dayEnd)
}

// PendingAppointments returns pending appointments, newest-created-first.
func (s *Service) PendingAppointments(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListPendingAppointments(ctx)
}

// AppointmentDetails loads a single appointment by ID.
func (s *Service) AppointmentDetails(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// UpdateStatus moves an appointment along the lifecycle graph. The update is
// conditional on the status observed here, so a concurrent transition makes
// the second writer fail rather than silently overwrite.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", to))
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(appt.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.metrics.ObserveStatusChange(string(to))
	s.log.Info().
		Str("appointment_id", id.String()).
		Str("from", string(appt.Status)).
		Str("to", string(to)).
		Msg("appointment status changed")

	return updated, nil
}

// CreateDentist registers a new active dentist.
func (s *Service) CreateDentist(ctx context.Context, fullName string, specialization *string) (*Dentist, error) {
	if fullName == "" {
		return nil, invalid("fullName", "must not be empty")
	}
	return s.repo.CreateDentist(ctx, fullName, specialization)
}

// Dentist loads a single dentist by ID.
func (s *Service) Dentist(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	return s.repo.GetDentistByID(ctx, id)
}

// AuthenticateUser looks up the user behind an external identity, creating
// the row on first sight. The configured owner identity is bootstrapped as
// admin; everyone else starts as a regular user.
func (s *Service) AuthenticateUser(ctx context.Context, openID string, name, email *string) (*User, error) {
	user, err := s.repo.GetUserByOpenID(ctx, openID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	role := RoleUser
	if s.cfg.OwnerOpenID != "" && openID == s.cfg.OwnerOpenID {
		role = RoleAdmin
	}
	return s.repo.UpsertUser(ctx, openID, name, email, role)
}
