package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Seeds a running service with a demo tenant and a few days of
// synthetic measurements. Occupancy follows a rough commuter pattern:
// busy weekday daytime, quiet nights, flatter weekends.

type options struct {
	baseURL string
	days    int
	floors  int
	sensors int
	seed    int64
}

func main() {
	opts := options{}
	flag.StringVar(&opts.baseURL, "url", "http://localhost:7071", "service base URL")
	flag.IntVar(&opts.days, "days", 7, "days of history to generate")
	flag.IntVar(&opts.floors, "floors", 2, "floors per parking")
	flag.IntVar(&opts.sensors, "sensors", 10, "sensors per floor")
	flag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(opts.seed))
	client := resty.New().
		SetBaseURL(opts.baseURL).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(time.Second)

	if err := run(client, rng, opts); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(client *resty.Client, rng *rand.Rand, opts options) error {
	clientID := uuid.New()
	parkingID := uuid.New()
	userID := uuid.New()

	if err := post(client, "/clients", map[string]interface{}{
		"client_id":    clientID,
		"client_alias": "Demo Client",
	}); err != nil {
		return err
	}
	if err := post(client, "/parkings", map[string]interface{}{
		"parking_id":     parkingID,
		"client_id":      clientID,
		"complex":        "Demo Complex",
		"parking_alias":  "Central Garage",
		"timezone":       "Europe/Madrid",
		"horario_cierre": []string{"22:00", "23:00", "23:00", "23:00", "23:00", "23:59", "23:59"},
	}); err != nil {
		return err
	}
	if err := post(client, "/users", map[string]interface{}{
		"user_id":       userID,
		"client_id":     clientID,
		"username":      "demo",
		"administrator": true,
	}); err != nil {
		return err
	}
	if err := post(client, "/permissions", map[string]interface{}{
		"user_id":    userID,
		"parking_id": parkingID,
	}); err != nil {
		return err
	}

	var sensorIDs []uuid.UUID
	for floor := 0; floor < opts.floors; floor++ {
		if err := post(client, "/levels", map[string]interface{}{
			"parking_id":  parkingID,
			"floor":       floor,
			"floor_alias": fmt.Sprintf("Level %d", floor),
		}); err != nil {
			return err
		}
		for n := 0; n < opts.sensors; n++ {
			sensorID := uuid.New()
			if err := post(client, "/sensors", map[string]interface{}{
				"sensor_id":    sensorID,
				"parking_id":   parkingID,
				"floor":        floor,
				"sensor_alias": fmt.Sprintf("P%d-%02d", floor, n+1),
				"type":         "surface",
			}); err != nil {
				return err
			}
			sensorIDs = append(sensorIDs, sensorID)
		}
	}

	fmt.Printf("seeded tenant: user_id=%s parking_id=%s sensors=%d\n", userID, parkingID, len(sensorIDs))

	start := time.Now().UTC().AddDate(0, 0, -opts.days).Truncate(24 * time.Hour)
	reports := 0
	for _, sensorID := range sensorIDs {
		state := false
		last := start
		for t := start; t.Before(time.Now().UTC()); t = t.Add(time.Duration(20+rng.Intn(40)) * time.Minute) {
			desired := rng.Float64() < occupancyChance(t)
			if desired == state {
				continue
			}
			held := t.Sub(last)
			if err := post(client, "/status", map[string]interface{}{
				"sensor_id":           sensorID,
				"timestamp":           t.Format(time.RFC3339),
				"state":               desired,
				"previous_state_time": fmt.Sprintf("%d seconds", int(held.Seconds())),
			}); err != nil {
				return err
			}
			state = desired
			last = t
			reports++
		}
	}

	fmt.Printf("posted %d status reports over %d days\n", reports, opts.days)
	return nil
}

// occupancyChance is the probability a spot is occupied at the given
// instant.
func occupancyChance(t time.Time) float64 {
	hour := t.Hour()
	weekend := t.Weekday() == time.Saturday || t.Weekday() == time.Sunday

	switch {
	case hour < 7:
		return 0.05
	case hour < 10:
		if weekend {
			return 0.25
		}
		return 0.75
	case hour < 18:
		if weekend {
			return 0.45
		}
		return 0.85
	case hour < 22:
		if weekend {
			return 0.55
		}
		return 0.40
	default:
		return 0.10
	}
}

func post(client *resty.Client, path string, body interface{}) error {
	resp, err := client.R().SetBody(body).Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status(), resp.String())
	}
	return nil
}
