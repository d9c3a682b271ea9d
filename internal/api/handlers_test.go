package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxanimal/dentists/internal/auth"
	"github.com/fxanimal/dentists/internal/clinic"
)

const testSecret = "test-secret"

// stubService implements ClinicService for handler tests.
type stubService struct {
	bookResult *clinic.BookingResult
	bookErr    error
	lastBook   clinic.BookingRequest

	slots    []clinic.TimeSlot
	dentists []clinic.Dentist
	settings *clinic.ClinicSettings
	pending  []clinic.Appointment
	today    []clinic.Appointment
	appts    []clinic.Appointment

	updateErr    error
	lastStatusID uuid.UUID
	lastStatus   clinic.AppointmentStatus
}

func (s *stubService) AuthenticateUser(_ context.Context, openID string, _, _ *string) (*clinic.User, error) {
	role := clinic.RoleUser
	if openID == "the-owner" {
		role = clinic.RoleAdmin
	}
	return &clinic.User{ID: 1, OpenID: openID, Role: role}, nil
}

func (s *stubService) Book(_ context.Context, req clinic.BookingRequest) (*clinic.BookingResult, error) {
	s.lastBook = req
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	return s.bookResult, nil
}

func (s *stubService) AvailableSlots(context.Context, time.Time, time.Time) ([]clinic.TimeSlot, error) {
	return s.slots, nil
}

func (s *stubService) ActiveDentists(context.Context) ([]clinic.Dentist, error) {
	return s.dentists, nil
}

func (s *stubService) ClinicInfo(context.Context) (*clinic.ClinicSettings, error) {
	return s.settings, nil
}

func (s *stubService) PatientAppointments(context.Context, string) ([]clinic.Appointment, error) {
	return s.appts, nil
}

func (s *stubService) TodayAppointments(context.Context) ([]clinic.Appointment, error) {
	return s.today, nil
}

func (s *stubService) PendingAppointments(context.Context) ([]clinic.Appointment, error) {
	return s.pending, nil
}

func (s *stubService) AppointmentDetails(_ context.Context, id uuid.UUID) (*clinic.Appointment, error) {
	for i := range s.appts {
		if s.appts[i].ID == id {
			return &s.appts[i], nil
		}
	}
	return nil, clinic.ErrAppointmentNotFound
}

func (s *stubService) UpdateStatus(_ context.Context, id uuid.UUID, to clinic.AppointmentStatus) (*clinic.Appointment, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.lastStatusID = id
	s.lastStatus = to
	return &clinic.Appointment{ID: id, Status: to}, nil
}

func (s *stubService) CreateDentist(_ context.Context, fullName string, specialization *string) (*clinic.Dentist, error) {
	if fullName == "" {
		return nil, &clinic.ValidationError{Field: "fullName", Message: "must not be empty"}
	}
	return &clinic.Dentist{ID: uuid.New(), FullName: fullName, Specialization: specialization, IsActive: true}, nil
}

func (s *stubService) Dentist(_ context.Context, id uuid.UUID) (*clinic.Dentist, error) {
	for i := range s.dentists {
		if s.dentists[i].ID == id {
			return &s.dentists[i], nil
		}
	}
	return nil, clinic.ErrDentistNotFound
}

func newTestRouter(svc ClinicService) http.Handler {
	return NewRouter(RouterConfig{
		Service:   svc,
		JWTSecret: testSecret,
		Env:       "test",
		Version:   "test",
		Logger:    zerolog.Nop(),
	})
}

func bearerFor(t *testing.T, openID string) string {
	t.Helper()
	token, err := auth.Sign(testSecret, openID, "", "", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestBookAppointmentCreated(t *testing.T) {
	svc := &stubService{
		bookResult: &clinic.BookingResult{
			PatientID:     uuid.New(),
			AppointmentID: uuid.New(),
			SlotID:        uuid.New(),
		},
	}
	router := newTestRouter(svc)

	body, _ := json.Marshal(BookAppointmentRequest{
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		Phone:           "5551234567",
		Reason:          "Cleaning",
		AppointmentTime: time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC),
		IsNewPatient:    true,
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp BookAppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, svc.bookResult.PatientID, resp.PatientID)
	assert.Equal(t, "Jane Doe", svc.lastBook.FullName)
	assert.True(t, svc.lastBook.IsNewPatient)
}

func TestBookAppointmentValidationFailure(t *testing.T) {
	svc := &stubService{
		bookErr: &clinic.ValidationError{Field: "phone", Message: "must be at least 10 characters"},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader([]byte(`{}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error)
}

func TestBookAppointmentSlotConflict(t *testing.T) {
	svc := &stubService{bookErr: clinic.ErrSlotUnavailable}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader([]byte(`{"full_name":"x"}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookAppointmentBadJSON(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader([]byte(`{not json`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailableSlots(t *testing.T) {
	dentistID := uuid.New()
	svc := &stubService{
		slots: []clinic.TimeSlot{
			{ID: uuid.New(), SlotDateTime: time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC), DentistID: dentistID},
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/slots?start=2024-06-10&end=2024-06-17", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []SlotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, dentistID, resp[0].DentistID)
}

func TestAvailableSlotsBadRange(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/slots?start=whenever&end=2024-06-17", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClinicInfoNullWhenUnseeded(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/clinic", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())
}

func TestPatientAppointmentsRequiresEmail(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRequiresToken(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/appointments/pending", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRejectsNonAdminRole(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/appointments/"+uuid.NewString()+"/status",
		bytes.NewReader([]byte(`{"status":"confirmed"}`)))
	req.Header.Set("Authorization", bearerFor(t, "regular-visitor"))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, uuid.Nil, svc.lastStatusID, "status update must not run for non-admins")
}

func TestAdminRejectsGarbageToken(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/appointments/pending", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminPendingAppointments(t *testing.T) {
	svc := &stubService{
		pending: []clinic.Appointment{
			{ID: uuid.New(), Status: clinic.StatusPending, Reason: "Cleaning"},
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/appointments/pending", nil)
	req.Header.Set("Authorization", bearerFor(t, "the-owner"))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "pending", resp[0].Status)
}

func TestAdminUpdateStatus(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	id := uuid.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/appointments/"+id.String()+"/status",
		bytes.NewReader([]byte(`{"status":"confirmed"}`)))
	req.Header.Set("Authorization", bearerFor(t, "the-owner"))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.lastStatusID)
	assert.Equal(t, clinic.StatusConfirmed, svc.lastStatus)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestAdminUpdateStatusInvalidTransition(t *testing.T) {
	svc := &stubService{updateErr: clinic.ErrInvalidStatusTransition}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/appointments/"+uuid.NewString()+"/status",
		bytes.NewReader([]byte(`{"status":"pending"}`)))
	req.Header.Set("Authorization", bearerFor(t, "the-owner"))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminCreateDentist(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/dentists",
		bytes.NewReader([]byte(`{"full_name":"Dr. Smith","specialization":"Orthodontics"}`)))
	req.Header.Set("Authorization", bearerFor(t, "the-owner"))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestAdminAppointmentDetailsNotFound(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/appointments/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", bearerFor(t, "the-owner"))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dentists", nil)
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
