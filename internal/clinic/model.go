package clinic

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusFinished  AppointmentStatus = "finished"
)

// ValidStatus reports whether s is one of the four lifecycle states.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusFinished:
		return true
	}
	return false
}

// statusTransitions is the enforced lifecycle graph. Cancelled and finished
// are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusFinished, StatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           int64
	OpenID       string
	Name         *string
	Email        *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSignedIn time.Time
}

type Patient struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Dentist struct {
	ID             uuid.UUID
	FullName       string
	Specialization *string
	IsActive       bool
	CreatedAt      time.Time
}

type TimeSlot struct {
	ID            uuid.UUID
	SlotDateTime  time.Time
	DentistID     uuid.UUID
	IsBooked      bool
	AppointmentID *uuid.UUID
}

type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	AppointmentTime time.Time
	Status          AppointmentStatus
	Reason          string
	PhoneNumber     string
	Notes           *string
	CreatedAt       time.Time
}

type ClinicSettings struct {
	ID                  int64
	ClinicName          string
	WorkingDays         string // comma-separated weekday numbers, 0=Sunday
	WorkingHoursStart   string // HH:MM
	WorkingHoursEnd     string // HH:MM
	SlotDurationMinutes int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// BookingRequest carries the public booking form input.
type BookingRequest struct {
	FullName        string
	Email           string
	Phone           string
	Reason          string
	AppointmentTime time.Time
	// IsNewPatient is informational only; patient identity is resolved by
	// email regardless of what the caller claims.
	IsNewPatient bool
}

// BookingResult is returned to the caller on a successful booking.
type BookingResult struct {
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
	SlotID        uuid.UUID
}
