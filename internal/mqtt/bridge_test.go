package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCredentialTopic(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		id, key, err := splitCredentialTopic("telemetry/esp-1/s3cr3t")
		require.NoError(t, err)
		assert.Equal(t, "esp-1", id)
		assert.Equal(t, "s3cr3t", key)
	})

	for _, topic := range []string{
		"telemetry/esp-1",
		"telemetry/esp-1/key/extra",
		"telemetry//key",
		"telemetry/esp-1/",
		"",
	} {
		t.Run("rejects "+topic, func(t *testing.T) {
			_, _, err := splitCredentialTopic(topic)
			assert.Error(t, err)
		})
	}
}
