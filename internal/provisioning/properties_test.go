// FilePath: internal/provisioning/properties_test.go
package provisioning

import (
	"testing"

	"github.com/aquasense/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProperties(t *testing.T) {
	t.Run("known keys get labels and units", func(t *testing.T) {
		info := &models.DeviceInfo{
			Properties: models.JSON{
				"minDistance":  20.0,
				"cloudNodeMAC": "AA:BB:CC:DD:EE:FF",
			},
		}

		props := ParseProperties(info)
		require.Len(t, props, 2)

		// Sorted by key.
		assert.Equal(t, "cloudNodeMAC", props[0].Name)
		assert.Equal(t, "Cloud Node MAC Address", props[0].Label)
		assert.Equal(t, KindString, props[0].Kind)

		assert.Equal(t, "minDistance", props[1].Name)
		assert.Equal(t, "Minimum Distance (Full)", props[1].Label)
		assert.Equal(t, "cm", props[1].Unit)
		assert.Equal(t, 20.0, props[1].Value)
	})

	t.Run("unrecognized keys are skipped", func(t *testing.T) {
		info := &models.DeviceInfo{
			Properties: models.JSON{
				"minDistance": 20.0,
				"someNewKey":  "whatever",
			},
		}

		props := ParseProperties(info)
		require.Len(t, props, 1)
		assert.Equal(t, "minDistance", props[0].Name)
	})

	t.Run("nil info", func(t *testing.T) {
		assert.Nil(t, ParseProperties(nil))
	})
}
