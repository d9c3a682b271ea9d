// Command simulate hammers one displayed slot with concurrent booking
// requests and reports how many succeeded. Exactly one success per slot is
// the expected outcome; anything more means the conditional slot claim is
// broken.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type slot struct {
	ID           string    `json:"id"`
	SlotDateTime time.Time `json:"slot_date_time"`
	DentistID    string    `json:"dentist_id"`
}

type bookRequest struct {
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Reason          string    `json:"reason"`
	AppointmentTime time.Time `json:"appointment_time"`
	IsNewPatient    bool      `json:"is_new_patient"`
}

func main() {
	baseURL := flag.String("base-url", "http://127.0.0.1:8080", "API base URL")
	workers := flag.Int("workers", 20, "concurrent booking attempts per slot")
	slots := flag.Int("slots", 3, "number of slots to contend on")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	client := &http.Client{Timeout: 10 * time.Second}

	targets, err := fetchOpenSlots(client, *baseURL, *slots)
	if err != nil {
		log.Fatalf("fetch slots: %v", err)
	}
	if len(targets) == 0 {
		log.Fatal("no open slots to contend on; run the seed tool first")
	}

	for _, target := range targets {
		success, conflict, failed := contend(client, *baseURL, target, *workers)
		verdict := "OK"
		if success != 1 {
			verdict = "DOUBLE BOOKING" // should never happen
		}
		fmt.Printf("slot %s @ %s: success=%d conflict=%d error=%d [%s]\n",
			target.ID, target.SlotDateTime.Format(time.RFC3339), success, conflict, failed, verdict)
	}
}

func fetchOpenSlots(client *http.Client, baseURL string, limit int) ([]slot, error) {
	start := time.Now().Format("2006-01-02")
	end := time.Now().AddDate(0, 0, 14).Format("2006-01-02")

	resp, err := client.Get(fmt.Sprintf("%s/api/slots?start=%s&end=%s", baseURL, start, end))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var all []slot
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func contend(client *http.Client, baseURL string, target slot, workers int) (success, conflict, failed int64) {
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			req := bookRequest{
				FullName:        gofakeit.Name(),
				Email:           gofakeit.Email(),
				Phone:           gofakeit.Numerify("##########"),
				Reason:          "Routine checkup",
				AppointmentTime: target.SlotDateTime,
				IsNewPatient:    true,
			}
			body, _ := json.Marshal(req)

			resp, err := client.Post(baseURL+"/api/appointments", "application/json", bytes.NewReader(body))
			if err != nil {
				atomic.AddInt64(&failed, 1)
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			switch resp.StatusCode {
			case http.StatusCreated:
				atomic.AddInt64(&success, 1)
			case http.StatusConflict:
				atomic.AddInt64(&conflict, 1)
			default:
				atomic.AddInt64(&failed, 1)
			}
		}()
	}

	wg.Wait()
	return success, conflict, failed
}
