package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"
)

// labels the simulator cycles through, weighted toward the common ones.
var simLabels = []string{
	"dog_bark", "dog_bark", "car_horn", "siren", "glass_break", "speech",
}

var errorCodes = []string{"E_MIC_FAIL", "E_LOW_BATTERY", "E_WIFI_DROP"}

// Posts synthetic classifier events (and the occasional fault report) to
// a running ingestion endpoint, authenticating like a real unit would.
func main() {
	baseURL := flag.String("url", "http://localhost:4000", "service base URL")
	deviceID := flag.String("id", "", "device identifier (required)")
	deviceKey := flag.String("key", "", "device secret from provisioning (required)")
	count := flag.Int("count", 10, "number of payloads to send")
	interval := flag.Duration("interval", time.Second, "delay between payloads")
	errorRate := flag.Float64("error-rate", 0.1, "fraction of payloads sent as fault reports")
	flag.Parse()

	if *deviceID == "" || *deviceKey == "" {
		log.Fatal("Usage: device-sim -id <device-id> -key <device-key> [-url <base>] [-count N]")
	}

	client := resty.New().
		SetBaseURL(*baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Device-Id", *deviceID).
		SetHeader("X-Device-Key", *deviceKey)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < *count; i++ {
		var payload map[string]any
		if rng.Float64() < *errorRate {
			payload = errorPayload(*deviceID, rng)
		} else {
			payload = eventPayload(*deviceID, rng)
		}

		resp, err := client.R().SetBody(payload).Post("/api/v1/ingests")
		if err != nil {
			log.Fatalf("Request %d failed: %v", i+1, err)
		}
		fmt.Printf("[%d/%d] %s %s\n", i+1, *count, resp.Status(), resp.String())

		if i+1 < *count {
			time.Sleep(*interval)
		}
	}
}

func eventPayload(deviceID string, rng *rand.Rand) map[string]any {
	label := simLabels[rng.Intn(len(simLabels))]
	return map[string]any{
		"device_id": deviceID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"event_data": map[string]any{
			"classification": map[string]any{
				"label":              label,
				"confidence":         0.5 + rng.Float64()*0.5,
				"alternative_labels": []string{},
			},
			"audio_metrics": map[string]any{
				"duration_ms":       float64(500 + rng.Intn(3000)),
				"sample_rate":       16000,
				"rms_energy":        rng.Float64(),
				"clipping_detected": rng.Float64() < 0.05,
			},
		},
		"device_metadata": map[string]any{
			"firmware": "sim-1.0.0",
			"battery":  rng.Intn(101),
		},
	}
}

func errorPayload(deviceID string, rng *rand.Rand) map[string]any {
	return map[string]any{
		"device_id": deviceID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"error": map[string]any{
			"code":        errorCodes[rng.Intn(len(errorCodes))],
			"severity":    "medium",
			"description": "synthetic fault from device-sim",
			"count":       1 + rng.Intn(5),
		},
	}
}
