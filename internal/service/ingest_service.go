package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"soundpost-data/internal/domain"
	"soundpost-data/internal/repository"
	"soundpost-data/internal/schema"
)

// Authentication and pipeline failures, matched with errors.Is by the
// HTTP layer to pick the status code.
var (
	ErrMissingCredentials = errors.New("missing device authentication headers")
	ErrUnknownDevice      = errors.New("unknown device")
	ErrInvalidSecret      = errors.New("invalid device key")
	ErrIdentityMismatch   = errors.New("authenticated device id mismatch")
)

// ValidationError is a payload rejected before persistence (HTTP 400).
type ValidationError struct {
	Message string
	Details string
}

func (e *ValidationError) Error() string { return e.Message }

// IngestResult reports which shape was accepted and the assigned row id.
type IngestResult struct {
	Kind schema.Kind
	ID   int64
}

// IngestService runs the full ingestion pipeline: authenticate, match
// body identity against credential identity, classify, project, persist.
// It holds no per-request state.
type IngestService struct {
	devices    repository.DevicesRepository
	events     repository.EventsRepository
	errors     repository.ErrorsRepository
	classifier *schema.Classifier
	logger     *zap.Logger
}

func NewIngestService(
	devices repository.DevicesRepository,
	events repository.EventsRepository,
	errs repository.ErrorsRepository,
	classifier *schema.Classifier,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		devices:    devices,
		events:     events,
		errors:     errs,
		classifier: classifier,
		logger:     logger,
	}
}

// HashDeviceKey computes the stored digest form of a shared secret.
// The provisioning tool uses the same function when seeding devices.
func HashDeviceKey(deviceKey string) string {
	sum := sha256.Sum256([]byte(deviceKey))
	return hex.EncodeToString(sum[:])
}

// Authenticate verifies the presented credentials and returns the
// identity attached to the request. Unknown-device and bad-secret
// failures map to the same 401 wire shape; the extra DB round trip for
// known devices is an accepted enumeration side channel.
func (s *IngestService) Authenticate(ctx context.Context, deviceID, deviceKey string) (*domain.AuthenticatedDevice, error) {
	if deviceID == "" || deviceKey == "" {
		return nil, ErrMissingCredentials
	}

	device, err := s.devices.GetDevice(ctx, deviceID)
	if errors.Is(err, repository.ErrDeviceNotFound) {
		return nil, ErrUnknownDevice
	}
	if err != nil {
		return nil, fmt.Errorf("device lookup: %w", err)
	}

	presented := HashDeviceKey(deviceKey)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(device.CredentialDigest)) != 1 {
		return nil, ErrInvalidSecret
	}

	return &domain.AuthenticatedDevice{
		DeviceID: device.DeviceID,
		Name:     device.Name,
		Timezone: device.Timezone,
	}, nil
}

// Ingest accepts one raw telemetry body on behalf of an authenticated
// device. Exactly one row is written per accepted payload; rejected
// payloads write nothing. Storage failures are not retried.
func (s *IngestService) Ingest(ctx context.Context, auth *domain.AuthenticatedDevice, rawBody []byte) (*IngestResult, error) {
	doc, err := schema.DecodeBody(rawBody)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid JSON body", Details: err.Error()}
	}

	// A device may only report as itself, even with valid credentials.
	bodyDeviceID, _ := getString(doc, "device_id")
	if bodyDeviceID != auth.DeviceID {
		return nil, ErrIdentityMismatch
	}

	kind, classifyErr := s.classifier.Classify(doc)
	switch kind {
	case schema.KindError:
		devErr, err := projectDeviceError(doc, rawBody)
		if err != nil {
			return nil, err
		}
		id, err := s.errors.InsertError(ctx, devErr)
		if err != nil {
			return nil, fmt.Errorf("persist device error: %w", err)
		}
		s.logger.Info("ingested device error",
			zap.String("device_id", auth.DeviceID),
			zap.Int64("id", id),
			zap.String("code", devErr.Code))
		return &IngestResult{Kind: schema.KindError, ID: id}, nil

	case schema.KindEvent:
		event, err := projectAudioEvent(doc, rawBody)
		if err != nil {
			return nil, err
		}
		id, err := s.events.InsertEvent(ctx, event)
		if err != nil {
			return nil, fmt.Errorf("persist audio event: %w", err)
		}
		s.logger.Info("ingested audio event",
			zap.String("device_id", auth.DeviceID),
			zap.Int64("id", id),
			zap.String("label", event.Label))
		return &IngestResult{Kind: schema.KindEvent, ID: id}, nil

	default:
		var unrec *schema.UnrecognizedError
		details := ""
		if errors.As(classifyErr, &unrec) {
			details = unrec.Details()
		}
		return nil, &ValidationError{Message: "Unrecognized payload", Details: details}
	}
}

// projectDeviceError maps a validated error payload onto the typed row.
// Optional fields stay nil; the raw body goes into the archive column
// verbatim.
func projectDeviceError(doc map[string]any, rawBody []byte) (*domain.DeviceError, error) {
	tsRaw, _ := getString(doc, "timestamp")
	ts, err := parseTimestamp(tsRaw)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid timestamp", Details: err.Error()}
	}

	errObj, _ := getObject(doc, "error")
	code, _ := getString(errObj, "code")
	severity, _ := getString(errObj, "severity")

	devErr := &domain.DeviceError{
		DeviceID:   mustString(doc, "device_id"),
		TS:         ts,
		Code:       code,
		Severity:   severity,
		RawPayload: json.RawMessage(rawBody),
	}

	if desc, ok := getString(errObj, "description"); ok {
		devErr.Description = &desc
	}
	if count, ok := getInt(errObj, "count"); ok {
		devErr.Count = &count
	}
	if first, ok := getString(errObj, "first_occurrence"); ok {
		t, err := parseTimestamp(first)
		if err != nil {
			return nil, &ValidationError{Message: "Invalid first_occurrence timestamp", Details: err.Error()}
		}
		devErr.FirstOccurrence = &t
	}

	return devErr, nil
}

// projectAudioEvent maps a validated event payload onto the typed row.
// alternative_labels defaults to an empty slice so consumers can always
// iterate it; every audio metric is independently nullable.
func projectAudioEvent(doc map[string]any, rawBody []byte) (*domain.AudioEvent, error) {
	tsRaw, _ := getString(doc, "timestamp")
	ts, err := parseTimestamp(tsRaw)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid timestamp", Details: err.Error()}
	}

	eventData, _ := getObject(doc, "event_data")
	classification, _ := getObject(eventData, "classification")
	label, _ := getString(classification, "label")
	confidence, _ := getNumber(classification, "confidence")

	event := &domain.AudioEvent{
		DeviceID:   mustString(doc, "device_id"),
		TS:         ts,
		Label:      label,
		Confidence: confidence,
		AltLabels:  getStringSlice(classification, "alternative_labels"),
		RawPayload: json.RawMessage(rawBody),
	}

	if metrics, ok := getObject(eventData, "audio_metrics"); ok {
		if v, ok := getNumber(metrics, "duration_ms"); ok {
			event.DurationMS = &v
		}
		if v, ok := getInt(metrics, "sample_rate"); ok {
			event.SampleRate = &v
		}
		if v, ok := getNumber(metrics, "rms_energy"); ok {
			event.RMSEnergy = &v
		}
		if v, ok := getNumber(metrics, "peak_amplitude"); ok {
			event.PeakAmplitude = &v
		}
		if v, ok := getBool(metrics, "clipping_detected"); ok {
			event.Clipping = &v
		}
		if v, ok := getNumber(metrics, "snr_db"); ok {
			event.SNRDB = &v
		}
	}

	event.MFCCSummary = marshalObject(doc, "feature_vector_summary")
	event.DeviceMeta = marshalObject(doc, "device_metadata")
	event.ProcStats = marshalObject(doc, "processing_stats")

	return event, nil
}

// parseTimestamp accepts RFC 3339 (with or without sub-seconds) and the
// zone-less variant some firmware emits. Anything else is a payload
// error, never a crash.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
