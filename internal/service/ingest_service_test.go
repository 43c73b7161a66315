package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soundpost-data/internal/domain"
	"soundpost-data/internal/repository"
	"soundpost-data/internal/schema"
)

type fixture struct {
	svc     *IngestService
	devices *repository.MemoryDevicesRepository
	events  *repository.MemoryEventsRepository
	errors  *repository.MemoryErrorsRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	classifier, err := schema.NewClassifier()
	require.NoError(t, err)

	f := &fixture{
		devices: repository.NewMemoryDevicesRepository(),
		events:  repository.NewMemoryEventsRepository(),
		errors:  repository.NewMemoryErrorsRepository(),
	}
	f.svc = NewIngestService(f.devices, f.events, f.errors, classifier, zap.NewNop())

	require.NoError(t, f.devices.CreateDevice(context.Background(), &domain.Device{
		DeviceID:         "esp-1",
		Name:             "Porch sensor",
		Timezone:         "UTC",
		CredentialDigest: HashDeviceKey("s3cr3t"),
		CreatedAt:        time.Now().UTC(),
	}))
	return f
}

func authAs(t *testing.T, f *fixture, deviceID, key string) *domain.AuthenticatedDevice {
	t.Helper()
	auth, err := f.svc.Authenticate(context.Background(), deviceID, key)
	require.NoError(t, err)
	return auth
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("missing credentials", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "", "s3cr3t")
		assert.ErrorIs(t, err, ErrMissingCredentials)
		_, err = f.svc.Authenticate(ctx, "esp-1", "")
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("unknown device", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "esp-404", "s3cr3t")
		assert.ErrorIs(t, err, ErrUnknownDevice)
	})

	t.Run("invalid secret", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "esp-1", "wrong")
		assert.ErrorIs(t, err, ErrInvalidSecret)
	})

	t.Run("success", func(t *testing.T) {
		auth, err := f.svc.Authenticate(ctx, "esp-1", "s3cr3t")
		require.NoError(t, err)
		assert.Equal(t, "esp-1", auth.DeviceID)
		assert.Equal(t, "Porch sensor", auth.Name)
		assert.Equal(t, "UTC", auth.Timezone)
	})
}

func TestIngestEventMinimal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := authAs(t, f, "esp-1", "s3cr3t")

	body := []byte(`{
		"device_id": "esp-1",
		"timestamp": "2024-01-01T00:00:00Z",
		"event_data": {"classification": {"label": "dog_bark", "confidence": 0.92}}
	}`)

	res, err := f.svc.Ingest(ctx, auth, body)
	require.NoError(t, err)
	assert.Equal(t, schema.KindEvent, res.Kind)

	stored, err := f.events.GetEvent(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "esp-1", stored.DeviceID)
	assert.Equal(t, "dog_bark", stored.Label)
	assert.Equal(t, 0.92, stored.Confidence)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), stored.TS)

	// absent alternatives default to an empty, iterable slice
	require.NotNil(t, stored.AltLabels)
	assert.Empty(t, stored.AltLabels)

	// absent metrics stay null, never zero
	assert.Nil(t, stored.DurationMS)
	assert.Nil(t, stored.SampleRate)
	assert.Nil(t, stored.Clipping)
	assert.Nil(t, stored.MFCCSummary)

	// archive column carries the body verbatim
	assert.JSONEq(t, string(body), string(stored.RawPayload))
}

func TestIngestEventFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := authAs(t, f, "esp-1", "s3cr3t")

	body := []byte(`{
		"device_id": "esp-1",
		"timestamp": "2024-06-15T10:30:00.250Z",
		"event_type": "sound_detected",
		"event_data": {
			"classification": {
				"label": "glass_break",
				"confidence": 0.81,
				"alternative_labels": ["window_knock", "dish_clatter"]
			},
			"audio_metrics": {
				"duration_ms": 1250.5,
				"sample_rate": 16000,
				"rms_energy": 0.42,
				"peak_amplitude": 0.97,
				"clipping_detected": true,
				"snr_db": 18.3
			}
		},
		"feature_vector_summary": {"mfcc_mean": [1.2, 3.4]},
		"device_metadata": {"fw": "1.4.2"},
		"processing_stats": {"inference_ms": 42}
	}`)

	res, err := f.svc.Ingest(ctx, auth, body)
	require.NoError(t, err)

	stored, err := f.events.GetEvent(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"window_knock", "dish_clatter"}, stored.AltLabels)
	require.NotNil(t, stored.DurationMS)
	assert.Equal(t, 1250.5, *stored.DurationMS)
	require.NotNil(t, stored.SampleRate)
	assert.Equal(t, int64(16000), *stored.SampleRate)
	require.NotNil(t, stored.Clipping)
	assert.True(t, *stored.Clipping)
	require.NotNil(t, stored.SNRDB)
	assert.Equal(t, 18.3, *stored.SNRDB)
	assert.JSONEq(t, `{"fw":"1.4.2"}`, string(stored.DeviceMeta))
	assert.JSONEq(t, `{"inference_ms":42}`, string(stored.ProcStats))
}

func TestIngestErrorMinimalAndFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := authAs(t, f, "esp-1", "s3cr3t")

	minimal := []byte(`{
		"device_id": "esp-1",
		"timestamp": "2024-01-01T00:00:00Z",
		"message_type": "error",
		"error": {"code": "E_MIC_FAIL", "severity": "high"}
	}`)

	res, err := f.svc.Ingest(ctx, auth, minimal)
	require.NoError(t, err)
	assert.Equal(t, schema.KindError, res.Kind)

	rows, err := f.errors.ListRecentErrors(ctx, "esp-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "E_MIC_FAIL", rows[0].Code)
	assert.Equal(t, "high", rows[0].Severity)
	assert.Nil(t, rows[0].Description)
	assert.Nil(t, rows[0].Count)
	assert.Nil(t, rows[0].FirstOccurrence)
	assert.JSONEq(t, string(minimal), string(rows[0].RawPayload))

	full := []byte(`{
		"device_id": "esp-1",
		"timestamp": "2024-01-02T08:00:00Z",
		"message_type": "error",
		"error": {
			"code": "E_SD_FULL",
			"severity": "medium",
			"description": "sd card at 98%",
			"count": 4,
			"first_occurrence": "2024-01-01T22:15:00Z"
		}
	}`)

	_, err = f.svc.Ingest(ctx, auth, full)
	require.NoError(t, err)

	rows, err = f.errors.ListRecentErrors(ctx, "esp-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	latest := rows[0]
	require.NotNil(t, latest.Description)
	assert.Equal(t, "sd card at 98%", *latest.Description)
	require.NotNil(t, latest.Count)
	assert.Equal(t, int64(4), *latest.Count)
	require.NotNil(t, latest.FirstOccurrence)
	assert.Equal(t, time.Date(2024, 1, 1, 22, 15, 0, 0, time.UTC), *latest.FirstOccurrence)
}

func TestIngestIdentityMismatchWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := authAs(t, f, "esp-1", "s3cr3t")

	body := []byte(`{
		"device_id": "esp-2",
		"timestamp": "2024-01-01T00:00:00Z",
		"event_data": {"classification": {"label": "dog_bark", "confidence": 0.9}}
	}`)

	_, err := f.svc.Ingest(ctx, auth, body)
	assert.ErrorIs(t, err, ErrIdentityMismatch)

	_, total, err := f.events.ListEvents(ctx, repository.EventFilters{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIngestUnrecognizedPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := authAs(t, f, "esp-1", "s3cr3t")

	_, err := f.svc.Ingest(ctx, auth, []byte(`{"device_id":"esp-1","hello":"world"}`))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Unrecognized payload", verr.Message)
	assert.Contains(t, verr.Details, "error schema:")
	assert.Contains(t, verr.Details, "event schema:")

	_, total, err := f.events.ListEvents(ctx, repository.EventFilters{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestIngestBothShapesRoutedAsError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := authAs(t, f, "esp-1", "s3cr3t")

	body := []byte(`{
		"device_id": "esp-1",
		"timestamp": "2024-01-01T00:00:00Z",
		"error": {"code": "E_OVERLAP", "severity": "low"},
		"event_data": {"classification": {"label": "dog_bark", "confidence": 0.5}}
	}`)

	res, err := f.svc.Ingest(ctx, auth, body)
	require.NoError(t, err)
	assert.Equal(t, schema.KindError, res.Kind)

	_, total, err := f.events.ListEvents(ctx, repository.EventFilters{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total, "must never also write an event row")
}

func TestIngestInvalidTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := authAs(t, f, "esp-1", "s3cr3t")

	body := []byte(`{
		"device_id": "esp-1",
		"timestamp": "not-a-date",
		"event_data": {"classification": {"label": "dog_bark", "confidence": 0.9}}
	}`)

	_, err := f.svc.Ingest(ctx, auth, body)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid timestamp", verr.Message)
}

func TestIngestMalformedJSON(t *testing.T) {
	f := newFixture(t)
	auth := authAs(t, f, "esp-1", "s3cr3t")

	_, err := f.svc.Ingest(context.Background(), auth, []byte(`{"broken`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestHashDeviceKeyDeterministic(t *testing.T) {
	a := HashDeviceKey("s3cr3t")
	b := HashDeviceKey("s3cr3t")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex SHA-256
	assert.NotEqual(t, a, HashDeviceKey("other"))
}
