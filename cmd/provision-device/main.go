package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"soundpost-data/internal/config"
	"soundpost-data/internal/database"
	"soundpost-data/internal/domain"
	"soundpost-data/internal/repository"
	"soundpost-data/internal/service"
)

// Registers a device and prints its shared secret exactly once. Only the
// SHA-256 digest is stored, so a lost secret means re-provisioning.
func main() {
	deviceID := flag.String("id", "", "device identifier (required)")
	name := flag.String("name", "", "human-readable device name")
	timezone := flag.String("tz", "UTC", "device timezone")
	flag.Parse()

	if *deviceID == "" {
		log.Fatal("Usage: provision-device -id <device-id> [-name <name>] [-tz <timezone>]")
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	secret := uuid.NewString()

	devices := repository.NewPostgresDevicesRepository(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := devices.CreateDevice(ctx, &domain.Device{
		DeviceID:         *deviceID,
		Name:             *name,
		Timezone:         *timezone,
		CredentialDigest: service.HashDeviceKey(secret),
	}); err != nil {
		log.Fatalf("Failed to provision device: %v", err)
	}

	fmt.Printf("Provisioned device %s\n", *deviceID)
	fmt.Printf("Device key (shown once, store it now): %s\n", secret)
}
