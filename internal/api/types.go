package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/fxanimal/dentists/internal/clinic"
)

type BookAppointmentRequest struct {
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Reason          string    `json:"reason"`
	AppointmentTime time.Time `json:"appointment_time"`
	IsNewPatient    bool      `json:"is_new_patient"`
}

type BookAppointmentResponse struct {
	Success       bool      `json:"success"`
	PatientID     uuid.UUID `json:"patient_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	SlotID        uuid.UUID `json:"slot_id"`
}

type SlotResponse struct {
	ID           uuid.UUID `json:"id"`
	SlotDateTime time.Time `json:"slot_date_time"`
	DentistID    uuid.UUID `json:"dentist_id"`
}

type DentistResponse struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Specialization *string   `json:"specialization,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type ClinicResponse struct {
	ClinicName          string `json:"clinic_name"`
	WorkingDays         string `json:"working_days"`
	WorkingHoursStart   string `json:"working_hours_start"`
	WorkingHoursEnd     string `json:"working_hours_end"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	AppointmentTime time.Time `json:"appointment_time"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason"`
	PhoneNumber     string    `json:"phone_number"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CreateDentistRequest struct {
	FullName       string  `json:"full_name"`
	Specialization *string `json:"specialization,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSlotResponse(s clinic.TimeSlot) SlotResponse {
	return SlotResponse{
		ID:           s.ID,
		SlotDateTime: s.SlotDateTime,
		DentistID:    s.DentistID,
	}
}

func toDentistResponse(d clinic.Dentist) DentistResponse {
	return DentistResponse{
		ID:             d.ID,
		FullName:       d.FullName,
		Specialization: d.Specialization,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
	}
}

func toAppointmentResponse(a clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		AppointmentTime: a.AppointmentTime,
		Status:          string(a.Status),
		Reason:          a.Reason,
		PhoneNumber:     a.PhoneNumber,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}
}

func toAppointmentResponses(list []clinic.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}
