package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDentistNotFound     = errors.New("dentist not found")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSettingsNotFound    = errors.New("clinic settings not found")
	ErrUserNotFound        = errors.New("user not found")

	// ErrSlotUnavailable is returned when the conditional slot claim inside
	// BookSlot affects zero rows: someone else booked it first.
	ErrSlotUnavailable = errors.New("slot is no longer available")

	// ErrEmailTaken signals a concurrent insert won the patients.email unique
	// index; the existing row should be reused.
	ErrEmailTaken = errors.New("patient email already registered")
)

// Repository contains all DB interactions needed by the service.
// Every method issues a single statement except BookSlot, which runs the
// claim-slot-then-insert-appointment transaction.
type Repository interface {
	// Users
	UpsertUser(ctx context.Context, openID string, name, email *string, role Role) (*User, error)
	GetUserByOpenID(ctx context.Context, openID string) (*User, error)

	// Patients
	GetPatientByEmail(ctx context.Context, email string) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	CreatePatient(ctx context.Context, fullName, email, phone string) (*Patient, error)

	// Dentists
	ListActiveDentists(ctx context.Context) ([]Dentist, error)
	GetDentistByID(ctx context.Context, id uuid.UUID) (*Dentist, error)
	CreateDentist(ctx context.Context, fullName string, specialization *string) (*Dentist, error)

	// Time slots
	ListAvailableSlots(ctx context.Context, start, end time.Time) ([]TimeSlot, error)
	GetOpenSlotByTime(ctx context.Context, at time.Time) (*TimeSlot, error)

	// BookSlot atomically marks the slot booked and inserts a pending
	// appointment for the patient. Fails with ErrSlotUnavailable when the
	// slot was claimed by a concurrent booking.
	BookSlot(ctx context.Context, slotID, patientID uuid.UUID, at time.Time, reason, phone string) (*Appointment, error)

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]Appointment, error)
	ListPendingAppointments(ctx context.Context) ([]Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Settings
	GetClinicSettings(ctx context.Context) (*ClinicSettings, error)
}
