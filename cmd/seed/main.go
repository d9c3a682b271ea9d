package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fxanimal/dentists/internal/db"
)

// Matches the fallback used by the booking UI before settings are seeded.
var defaultSettings = struct {
	ClinicName          string
	WorkingDays         string
	WorkingHoursStart   string
	WorkingHoursEnd     string
	SlotDurationMinutes int
}{
	ClinicName:          "Canuck Dentist",
	WorkingDays:         "1,2,3,4,5",
	WorkingHoursStart:   "09:30",
	WorkingHoursEnd:     "17:30",
	SlotDurationMinutes: 60,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	days := 14
	if v := os.Getenv("SEED_SLOT_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid SEED_SLOT_DAYS %q", v)
		}
		days = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedClinicSettings(context.Background(), pool); err != nil {
		log.Fatalf("seed clinic settings: %v", err)
	}
	dentistIDs, err := seedDentists(context.Background(), pool, 5)
	if err != nil {
		log.Fatalf("seed dentists: %v", err)
	}
	if err := seedTimeSlots(context.Background(), pool, dentistIDs, days); err != nil {
		log.Fatalf("seed time slots: %v", err)
	}

	log.Println("seed complete")
}

func seedClinicSettings(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM clinic_settings`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		log.Println("clinic settings already present, skipping")
		return nil
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO clinic_settings (clinic_name, working_days, working_hours_start, working_hours_end, slot_duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`, defaultSettings.ClinicName, defaultSettings.WorkingDays,
		defaultSettings.WorkingHoursStart, defaultSettings.WorkingHoursEnd,
		defaultSettings.SlotDurationMinutes)
	if err != nil {
		return err
	}

	log.Println("clinic settings seeded")
	return nil
}

func seedDentists(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d dentists", count)

	specializations := []string{
		"Orthodontics",
		"Periodontics",
		"Endodontics",
		"Pediatric Dentistry",
		"Oral Surgery",
		"Prosthodontics",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specializations[gofakeit.Number(0, len(specializations)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO dentists (id, full_name, specialization, is_active, created_at)
			VALUES ($1, $2, $3, true, now())
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("dentists seeded")
	return ids, nil
}

// seedTimeSlots generates open slots for the coming days from the clinic's
// working window. Existing (time, dentist) pairs are left untouched.
func seedTimeSlots(ctx context.Context, pool *pgxpool.Pool, dentistIDs []uuid.UUID, days int) error {
	var workingDays, hoursStart, hoursEnd string
	var slotMinutes int
	err := pool.QueryRow(ctx, `
		SELECT working_days, working_hours_start, working_hours_end, slot_duration_minutes
		FROM clinic_settings
		ORDER BY id
		LIMIT 1
	`).Scan(&workingDays, &hoursStart, &hoursEnd, &slotMinutes)
	if err != nil {
		return err
	}

	openDays := make(map[time.Weekday]bool)
	for _, d := range strings.Split(workingDays, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		openDays[time.Weekday(n)] = true
	}

	startH, startM, err := parseClock(hoursStart)
	if err != nil {
		return err
	}
	endH, endM, err := parseClock(hoursEnd)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	now := time.Now()
	for day := 0; day < days; day++ {
		date := now.AddDate(0, 0, day)
		if !openDays[date.Weekday()] {
			continue
		}

		dayOpen := time.Date(date.Year(), date.Month(), date.Day(), startH, startM, 0, 0, date.Location())
		dayClose := time.Date(date.Year(), date.Month(), date.Day(), endH, endM, 0, 0, date.Location())

		for at := dayOpen; at.Before(dayClose); at = at.Add(time.Duration(slotMinutes) * time.Minute) {
			if at.Before(now) {
				continue
			}
			for _, dentistID := range dentistIDs {
				_, err := tx.Exec(ctx, `
					INSERT INTO time_slots (id, slot_date_time, dentist_id, is_booked)
					VALUES ($1, $2, $3, false)
					ON CONFLICT (slot_date_time, dentist_id) DO NOTHING
				`, uuid.New(), at, dentistID)
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("time slots seeded: %d", total)
	return nil
}

func parseClock(v string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
