// FilePath: internal/registry/registry.sensordata_test.go
package registry

import (
	"context"
	"testing"
	"time"

	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSensorData(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the reading and marks the device online", func(t *testing.T) {
		svc := newTestRegistry()
		device := registerTestDevice(t, svc, "Tank Sensor 1", string(models.DeviceTypeSensorNode), "")

		reading, err := svc.SaveSensorData(ctx, &models.SensorDataRequest{
			DeviceID: device.ID,
			Data:     models.JSON{"distance": 120.5, "battery": 87.0},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, reading.ID)
		assert.Equal(t, "Tank Sensor 1", reading.DeviceName)
		assert.False(t, reading.ReceivedAt.IsZero())

		got, err := svc.GetDevice(ctx, device.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOnline, got.Status)
	})

	t.Run("accepts readings from unregistered devices", func(t *testing.T) {
		svc := newTestRegistry()

		reading, err := svc.SaveSensorData(ctx, &models.SensorDataRequest{
			DeviceID: "not-registered-yet",
			Data:     models.JSON{"distance": 99.0},
		})
		require.NoError(t, err)
		assert.Equal(t, "Unknown Device", reading.DeviceName)
	})

	t.Run("rejects missing device id", func(t *testing.T) {
		svc := newTestRegistry()

		_, err := svc.SaveSensorData(ctx, &models.SensorDataRequest{})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestSensorDataForDevice(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()
	device := registerTestDevice(t, svc, "Tank Sensor 1", string(models.DeviceTypeSensorNode), "")

	for i := 0; i < 5; i++ {
		_, err := svc.SaveSensorData(ctx, &models.SensorDataRequest{
			DeviceID: device.ID,
			Data:     models.JSON{"seq": float64(i)},
		})
		require.NoError(t, err)
	}

	t.Run("limit zero returns everything", func(t *testing.T) {
		readings, err := svc.SensorDataForDevice(ctx, device.ID, 0)
		require.NoError(t, err)
		assert.Len(t, readings, 5)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		readings, err := svc.SensorDataForDevice(ctx, device.ID, 2)
		require.NoError(t, err)
		assert.Len(t, readings, 2)
	})
}

func TestSensorDataInRange(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()
	device := registerTestDevice(t, svc, "Tank Sensor 1", string(models.DeviceTypeSensorNode), "")

	_, err := svc.SaveSensorData(ctx, &models.SensorDataRequest{
		DeviceID: device.ID,
		Data:     models.JSON{"distance": 42.0},
	})
	require.NoError(t, err)

	now := time.Now().UTC()

	t.Run("returns readings inside the window", func(t *testing.T) {
		readings, err := svc.SensorDataInRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, readings, 1)
	})

	t.Run("empty window is empty, not an error", func(t *testing.T) {
		readings, err := svc.SensorDataInRange(ctx, now.Add(time.Hour), now.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, readings)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		_, err := svc.SensorDataInRange(ctx, now, now.Add(-time.Hour))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}
