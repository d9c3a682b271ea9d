package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointmentCols = []string{
	"id", "patient_id", "appointment_time", "status", "reason", "phone_number", "notes", "created_at",
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPgRepository(mock)
}

func TestBookSlotClaimsAndCreates(t *testing.T) {
	mock, repo := newMockRepo(t)

	slotID := uuid.New()
	patientID := uuid.New()
	at := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
	apptID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE time_slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), patientID, at, "Cleaning", "5551234567").
		WillReturnRows(pgxmock.NewRows(appointmentCols).
			AddRow(apptID, patientID, at, StatusPending, "Cleaning", "5551234567", nil, time.Now()))
	mock.ExpectExec("UPDATE time_slots").
		WithArgs(slotID, apptID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	appt, err := repo.BookSlot(context.Background(), slotID, patientID, at, "Cleaning", "5551234567")
	require.NoError(t, err)
	assert.Equal(t, apptID, appt.ID)
	assert.Equal(t, StatusPending, appt.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSlotAlreadyClaimed(t *testing.T) {
	mock, repo := newMockRepo(t)

	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE time_slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := repo.BookSlot(context.Background(), slotID, uuid.New(), time.Now(), "Cleaning", "5551234567")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePatientEmailRace(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO patients").
		WithArgs(pgxmock.AnyArg(), "Jane Doe", "jane@example.com", "5551234567").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := repo.CreatePatient(context.Background(), "Jane Doe", "jane@example.com", "5551234567")
	assert.ErrorIs(t, err, ErrEmailTaken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPatientByEmailNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, full_name, email, phone, created_at").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetPatientByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestListAvailableSlots(t *testing.T) {
	mock, repo := newMockRepo(t)

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)
	dentistID := uuid.New()

	rows := pgxmock.NewRows([]string{"id", "slot_date_time", "dentist_id", "is_booked", "appointment_id"}).
		AddRow(uuid.New(), start.Add(9*time.Hour), dentistID, false, nil).
		AddRow(uuid.New(), start.Add(10*time.Hour), dentistID, false, nil)

	mock.ExpectQuery("SELECT id, slot_date_time, dentist_id, is_booked, appointment_id").
		WithArgs(start, end).
		WillReturnRows(rows)

	slots, err := repo.ListAvailableSlots(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].SlotDateTime.Before(slots[1].SlotDateTime))
	assert.False(t, slots[0].IsBooked)
}

func TestListPendingAppointmentsOrdersNewestFirst(t *testing.T) {
	mock, repo := newMockRepo(t)

	newer := time.Now()
	older := newer.Add(-time.Hour)

	rows := pgxmock.NewRows(appointmentCols).
		AddRow(uuid.New(), uuid.New(), newer.Add(48*time.Hour), StatusPending, "Cleaning", "5551234567", nil, newer).
		AddRow(uuid.New(), uuid.New(), newer.Add(24*time.Hour), StatusPending, "Filling", "5559876543", nil, older)

	mock.ExpectQuery(`ORDER BY created_at DESC`).WillReturnRows(rows)

	appts, err := repo.ListPendingAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.True(t, appts[0].CreatedAt.After(appts[1].CreatedAt))
	for _, a := range appts {
		assert.Equal(t, StatusPending, a.Status)
	}
}

func TestUpdateAppointmentStatusGuardsObservedState(t *testing.T) {
	mock, repo := newMockRepo(t)

	id := uuid.New()

	// The WHERE status=$3 guard means a concurrent transition shows up as
	// no rows.
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(id, StatusConfirmed, StatusPending).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateAppointmentStatus(context.Background(), id, StatusPending, StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUserReturnsRow(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now()
	cols := []string{"id", "open_id", "name", "email", "role", "created_at", "updated_at", "last_signed_in"}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("open-1", (*string)(nil), (*string)(nil), RoleAdmin).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(1), "open-1", nil, nil, RoleAdmin, now, now, now))

	u, err := repo.UpsertUser(context.Background(), "open-1", nil, nil, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Equal(t, "open-1", u.OpenID)
}

func TestUpsertUserRequiresOpenID(t *testing.T) {
	_, repo := newMockRepo(t)

	_, err := repo.UpsertUser(context.Background(), "", nil, nil, RoleUser)
	assert.Error(t, err)
}

func TestGetClinicSettingsNotSeeded(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, clinic_name").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetClinicSettings(context.Background())
	assert.ErrorIs(t, err, ErrSettingsNotFound)
}
