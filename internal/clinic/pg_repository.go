package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.OpenID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastSignedIn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanDentist(row pgx.Row) (*Dentist, error) {
	var d Dentist
	err := row.Scan(
		&d.ID,
		&d.FullName,
		&d.Specialization,
		&d.IsActive,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDentistNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanSlot(row pgx.Row) (*TimeSlot, error) {
	var s TimeSlot
	err := row.Scan(
		&s.ID,
		&s.SlotDateTime,
		&s.DentistID,
		&s.IsBooked,
		&s.AppointmentID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.AppointmentTime,
		&a.Status,
		&a.Reason,
		&a.PhoneNumber,
		&a.Notes,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Users

func (r *PgRepository) UpsertUser(ctx context.Context, openID string, name, email *string, role Role) (*User, error) {
	if openID == "" {
		return nil, errors.New("openID is required for upsert")
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO users (open_id, name, email, role, created_at, updated_at, last_signed_in)
		VALUES ($1, $2, $3, $4, now(), now(), now())
		ON CONFLICT (open_id) DO UPDATE
		SET name           = COALESCE(EXCLUDED.name, users.name),
		    email          = COALESCE(EXCLUDED.email, users.email),
		    role           = EXCLUDED.role,
		    updated_at     = now(),
		    last_signed_in = now()
		RETURNING id, open_id, name, email, role, created_at, updated_at, last_signed_in
	`, openID, name, email, role)
	return scanUser(row)
}

func (r *PgRepository) GetUserByOpenID(ctx context.Context, openID string) (*User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, open_id, name, email, role, created_at, updated_at, last_signed_in
		FROM users
		WHERE open_id = $1
	`, openID)
	return scanUser(row)
}

// Patients

func (r *PgRepository) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, full_name, email, phone, created_at
		FROM patients
		WHERE email = $1
	`, email)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, full_name, email, phone, created_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, fullName, email, phone string) (*Patient, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO patients (id, full_name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, full_name, email, phone, created_at
	`, id, fullName, email, phone)

	p, err := scanPatient(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Lost the insert race on email; the caller re-reads.
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return p, nil
}

// Dentists

func (r *PgRepository) ListActiveDentists(ctx context.Context) ([]Dentist, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, full_name, specialization, is_active, created_at
		FROM dentists
		WHERE is_active = true
		ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Dentist
	for rows.Next() {
		d, err := scanDentist(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetDentistByID(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, full_name, specialization, is_active, created_at
		FROM dentists
		WHERE id = $1
	`, id)
	return scanDentist(row)
}

func (r *PgRepository) CreateDentist(ctx context.Context, fullName string, specialization *string) (*Dentist, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO dentists (id, full_name, specialization, is_active, created_at)
		VALUES ($1, $2, $3, true, now())
		RETURNING id, full_name, specialization, is_active, created_at
	`, id, fullName, specialization)
	return scanDentist(row)
}

// Time slots

func (r *PgRepository) ListAvailableSlots(ctx context.Context, start, end time.Time) ([]TimeSlot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, slot_date_time, dentist_id, is_booked, appointment_id
		FROM time_slots
		WHERE slot_date_time >= $1
		  AND slot_date_time <= $2
		  AND is_booked = false
		ORDER BY slot_date_time
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetOpenSlotByTime(ctx context.Context, at time.Time) (*TimeSlot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, slot_date_time, dentist_id, is_booked, appointment_id
		FROM time_slots
		WHERE slot_date_time = $1
		  AND is_booked = false
		ORDER BY dentist_id
		LIMIT 1
	`, at)
	return scanSlot(row)
}

// BookSlot claims the slot and creates the pending appointment in one
// transaction. The conditional update on is_booked is what makes concurrent
// bookings for the same slot mutually exclusive at the store.
func (r *PgRepository) BookSlot(ctx context.Context, slotID, patientID uuid.UUID, at time.Time, reason, phone string) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE time_slots
		SET is_booked = true
		WHERE id = $1
		  AND is_booked = false
	`, slotID)
	if err != nil {
		return nil, fmt.Errorf("claim slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrSlotUnavailable
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, appointment_time, status, reason, phone_number, created_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, now())
		RETURNING id, patient_id, appointment_time, status, reason, phone_number, notes, created_at
	`, id, patientID, at, reason, phone)

	appt, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("create pending appointment: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE time_slots
		SET appointment_id = $2
		WHERE id = $1
	`, slotID, appt.ID)
	if err != nil {
		return nil, fmt.Errorf("link slot to appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}

	return appt, nil
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, patient_id, appointment_time, status, reason, phone_number, notes, created_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, appointment_time, status, reason, phone_number, notes, created_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_time
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, appointment_time, status, reason, phone_number, notes, created_at
		FROM appointments
		WHERE appointment_time >= $1
		  AND appointment_time <= $2
		ORDER BY appointment_time
	`, start, end)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListPendingAppointments(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, appointment_time, status, reason, phone_number, notes, created_at
		FROM appointments
		WHERE status = 'pending'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		  AND status = $3
		RETURNING id, patient_id, appointment_time, status, reason, phone_number, notes, created_at
	`, id, to, from)
	return scanAppointment(row)
}

// Settings

func (r *PgRepository) GetClinicSettings(ctx context.Context) (*ClinicSettings, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, clinic_name, working_days, working_hours_start, working_hours_end, slot_duration_minutes, created_at, updated_at
		FROM clinic_settings
		ORDER BY id
		LIMIT 1
	`)

	var s ClinicSettings
	err := row.Scan(
		&s.ID,
		&s.ClinicName,
		&s.WorkingDays,
		&s.WorkingHoursStart,
		&s.WorkingHoursEnd,
		&s.SlotDurationMinutes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &s, nil
}
