package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fxanimal/dentists/internal/clinic"
)

// ClinicService is the surface the handlers dispatch to.
type ClinicService interface {
	UserResolver

	Book(ctx context.Context, req clinic.BookingRequest) (*clinic.BookingResult, error)
	AvailableSlots(ctx context.Context, start, end time.Time) ([]clinic.TimeSlot, error)
	ActiveDentists(ctx context.Context) ([]clinic.Dentist, error)
	ClinicInfo(ctx context.Context) (*clinic.ClinicSettings, error)
	PatientAppointments(ctx context.Context, email string) ([]clinic.Appointment, error)

	TodayAppointments(ctx context.Context) ([]clinic.Appointment, error)
	PendingAppointments(ctx context.Context) ([]clinic.Appointment, error)
	AppointmentDetails(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to clinic.AppointmentStatus) (*clinic.Appointment, error)
	CreateDentist(ctx context.Context, fullName string, specialization *string) (*clinic.Dentist, error)
	Dentist(ctx context.Context, id uuid.UUID) (*clinic.Dentist, error)
}

func availableSlotsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := parseTimeParam(r.URL.Query().Get("start"), false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC3339 or YYYY-MM-DD")
			return
		}
		end, err := parseTimeParam(r.URL.Query().Get("end"), true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC3339 or YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), start, end)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func dentistsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dentists, err := svc.ActiveDentists(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]DentistResponse, 0, len(dentists))
		for _, d := range dentists {
			resp = append(resp, toDentistResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func clinicInfoHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.ClinicInfo(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if settings == nil {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, ClinicResponse{
			ClinicName:          settings.ClinicName,
			WorkingDays:         settings.WorkingDays,
			WorkingHoursStart:   settings.WorkingHoursStart,
			WorkingHoursEnd:     settings.WorkingHoursEnd,
			SlotDurationMinutes: settings.SlotDurationMinutes,
		})
	}
}

func bookAppointmentHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		result, err := svc.Book(r.Context(), clinic.BookingRequest{
			FullName:        req.FullName,
			Email:           req.Email,
			Phone:           req.Phone,
			Reason:          req.Reason,
			AppointmentTime: req.AppointmentTime,
			IsNewPatient:    req.IsNewPatient,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookAppointmentResponse{
			Success:       true,
			PatientID:     result.PatientID,
			AppointmentID: result.AppointmentID,
			SlotID:        result.SlotID,
		})
	}
}

func patientAppointmentsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			writeError(w, http.StatusBadRequest, "missing_email", "email query parameter is required")
			return
		}

		appts, err := svc.PatientAppointments(r.Context(), email)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

// parseTimeParam accepts RFC3339 timestamps or bare dates. A bare end date
// covers the whole day.
func parseTimeParam(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return t, nil
}
