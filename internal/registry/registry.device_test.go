// FilePath: internal/registry/registry.device_test.go
package registry

import (
	"context"
	"testing"

	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
	"github.com/aquasense/hub/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return New(memory.NewDeviceRepository(), memory.NewSensorDataRepository(), nil)
}

func registerTestDevice(t *testing.T, svc *Registry, name, deviceType, mac string) *models.Device {
	t.Helper()
	device, err := svc.RegisterDevice(context.Background(), &models.ProvisioningRequest{
		DeviceName: name,
		DeviceType: deviceType,
		MacAddress: mac,
	})
	require.NoError(t, err)
	return device
}

func TestRegisterDevice(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	t.Run("new devices start in provisioning state", func(t *testing.T) {
		device, err := svc.RegisterDevice(ctx, &models.ProvisioningRequest{
			DeviceName:  "Tank Sensor 1",
			DeviceType:  string(models.DeviceTypeSensorNode),
			BluetoothID: "ble-001",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, device.ID)
		assert.Equal(t, models.StatusProvisioning, device.Status)
		assert.Equal(t, "ble-001", device.BluetoothID)
		assert.False(t, device.RegisteredAt.IsZero())
		assert.NotNil(t, device.Metadata)
		assert.NotNil(t, device.AssignedSensorIDs)
	})

	t.Run("rejects empty device name", func(t *testing.T) {
		_, err := svc.RegisterDevice(ctx, &models.ProvisioningRequest{})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestAssignSensorToCloudNode(t *testing.T) {
	ctx := context.Background()

	t.Run("assignment links both sides and returns the node MAC", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		mac, err := svc.AssignSensorToCloudNode(ctx, sensor.ID, node.ID)
		require.NoError(t, err)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", mac)

		gotSensor, err := svc.GetDevice(ctx, sensor.ID)
		require.NoError(t, err)
		assert.Equal(t, node.ID, gotSensor.CloudNodeID)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", gotSensor.Metadata[models.MetadataKeyCloudNodeMAC])

		gotNode, err := svc.GetDevice(ctx, node.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StringList{sensor.ID}, gotNode.AssignedSensorIDs)
	})

	t.Run("re-assigning the same pair is idempotent", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		_, err := svc.AssignSensorToCloudNode(ctx, sensor.ID, node.ID)
		require.NoError(t, err)
		_, err = svc.AssignSensorToCloudNode(ctx, sensor.ID, node.ID)
		require.NoError(t, err)

		gotNode, err := svc.GetDevice(ctx, node.ID)
		require.NoError(t, err)
		assert.Len(t, gotNode.AssignedSensorIDs, 1)
	})

	t.Run("missing sensor", func(t *testing.T) {
		svc := newTestRegistry()
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		_, err := svc.AssignSensorToCloudNode(ctx, "nope", node.ID)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
		assert.Contains(t, err.Error(), "Sensor not found")
	})

	t.Run("missing cloud node", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")

		_, err := svc.AssignSensorToCloudNode(ctx, sensor.ID, "nope")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
		assert.Contains(t, err.Error(), "Cloud node not found")
	})

	t.Run("cloud node without a MAC mutates neither device", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "")

		_, err := svc.AssignSensorToCloudNode(ctx, sensor.ID, node.ID)
		require.Error(t, err)
		assert.True(t, errors.IsPrecondition(err))

		gotSensor, err := svc.GetDevice(ctx, sensor.ID)
		require.NoError(t, err)
		assert.Empty(t, gotSensor.CloudNodeID)
		assert.NotContains(t, gotSensor.Metadata, models.MetadataKeyCloudNodeMAC)

		gotNode, err := svc.GetDevice(ctx, node.ID)
		require.NoError(t, err)
		assert.Empty(t, gotNode.AssignedSensorIDs)
	})
}

func TestUpdateDeviceType(t *testing.T) {
	ctx := context.Background()

	t.Run("sensor to cloud node drops the old assignment", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		_, err := svc.AssignSensorToCloudNode(ctx, sensor.ID, node.ID)
		require.NoError(t, err)

		promoted, err := svc.UpdateDeviceType(ctx, sensor.ID, string(models.DeviceTypeCloudNode))
		require.NoError(t, err)
		assert.Equal(t, string(models.DeviceTypeCloudNode), promoted.DeviceType)
		assert.Empty(t, promoted.CloudNodeID)

		gotNode, err := svc.GetDevice(ctx, node.ID)
		require.NoError(t, err)
		assert.NotContains(t, gotNode.AssignedSensorIDs, sensor.ID)
	})

	t.Run("cloud node to sensor orphans every assigned sensor", func(t *testing.T) {
		svc := newTestRegistry()
		sensorA := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
		sensorB := registerTestDevice(t, svc, "Sensor B", string(models.DeviceTypeSensorNode), "")
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		_, err := svc.AssignSensorToCloudNode(ctx, sensorA.ID, node.ID)
		require.NoError(t, err)
		_, err = svc.AssignSensorToCloudNode(ctx, sensorB.ID, node.ID)
		require.NoError(t, err)

		demoted, err := svc.UpdateDeviceType(ctx, node.ID, string(models.DeviceTypeSensorNode))
		require.NoError(t, err)
		assert.Equal(t, string(models.DeviceTypeSensorNode), demoted.DeviceType)
		assert.Empty(t, demoted.AssignedSensorIDs)

		for _, id := range []string{sensorA.ID, sensorB.ID} {
			got, err := svc.GetDevice(ctx, id)
			require.NoError(t, err)
			assert.Empty(t, got.CloudNodeID)
			assert.NotContains(t, got.Metadata, models.MetadataKeyCloudNodeMAC)
		}
	})

	t.Run("unknown device", func(t *testing.T) {
		svc := newTestRegistry()
		_, err := svc.UpdateDeviceType(ctx, "nope", string(models.DeviceTypeCloudNode))
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestUpdateDeviceStatus(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()
	device := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")

	t.Run("sets status and bumps last seen", func(t *testing.T) {
		err := svc.UpdateDeviceStatus(ctx, device.ID, models.StatusOnline)
		require.NoError(t, err)

		got, err := svc.GetDevice(ctx, device.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOnline, got.Status)
		assert.True(t, got.LastSeen.After(device.LastSeen) || got.LastSeen.Equal(device.LastSeen))
	})

	t.Run("rejects unknown status values", func(t *testing.T) {
		err := svc.UpdateDeviceStatus(ctx, device.ID, models.DeviceStatus("Sleeping"))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestUpdateDeviceMetadata(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()
	device := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")

	_, err := svc.UpdateDeviceMetadata(ctx, device.ID, map[string]string{
		"location": "basement",
		"firmware": "1.2.0",
	})
	require.NoError(t, err)

	// Merge overwrites by key and leaves the rest alone.
	updated, err := svc.UpdateDeviceMetadata(ctx, device.ID, map[string]string{
		"firmware": "1.3.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "basement", updated.Metadata["location"])
	assert.Equal(t, "1.3.0", updated.Metadata["firmware"])
}

func TestDeleteDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting a cloud node orphans its sensors", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		_, err := svc.AssignSensorToCloudNode(ctx, sensor.ID, node.ID)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteDevice(ctx, node.ID))

		_, err = svc.GetDevice(ctx, node.ID)
		assert.True(t, errors.IsNotFound(err))

		gotSensor, err := svc.GetDevice(ctx, sensor.ID)
		require.NoError(t, err)
		assert.Empty(t, gotSensor.CloudNodeID)
		assert.NotContains(t, gotSensor.Metadata, models.MetadataKeyCloudNodeMAC)
	})

	t.Run("deleting a sensor unlinks it from its cloud node", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
		node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		_, err := svc.AssignSensorToCloudNode(ctx, sensor.ID, node.ID)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteDevice(ctx, sensor.ID))

		gotNode, err := svc.GetDevice(ctx, node.ID)
		require.NoError(t, err)
		assert.NotContains(t, gotNode.AssignedSensorIDs, sensor.ID)
	})

	t.Run("deleting a device removes its telemetry", func(t *testing.T) {
		svc := newTestRegistry()
		sensor := registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")

		_, err := svc.SaveSensorData(ctx, &models.SensorDataRequest{
			DeviceID: sensor.ID,
			Data:     models.JSON{"distance": 42.0},
		})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteDevice(ctx, sensor.ID))

		readings, err := svc.SensorDataForDevice(ctx, sensor.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, readings)
	})

	t.Run("unknown device", func(t *testing.T) {
		svc := newTestRegistry()
		err := svc.DeleteDevice(ctx, "nope")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

// fakePresence marks every touched device as seen.
type fakePresence struct {
	seen map[string]bool
}

func (f *fakePresence) Touch(ctx context.Context, deviceID string) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[deviceID] = true
	return nil
}

func (f *fakePresence) Online(ctx context.Context, deviceID string) (bool, error) {
	return f.seen[deviceID], nil
}

func (f *fakePresence) OnlineBatch(ctx context.Context, deviceIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		out[id] = f.seen[id]
	}
	return out, nil
}

func TestLivenessAnnotation(t *testing.T) {
	ctx := context.Background()
	pres := &fakePresence{}
	svc := New(memory.NewDeviceRepository(), memory.NewSensorDataRepository(), pres)

	quiet := registerTestDevice(t, svc, "Quiet Sensor", string(models.DeviceTypeSensorNode), "")
	active := registerTestDevice(t, svc, "Active Sensor", string(models.DeviceTypeSensorNode), "")

	require.NoError(t, svc.UpdateDeviceStatus(ctx, quiet.ID, models.StatusOnline))

	// Telemetry touches presence and flips the device online.
	_, err := svc.SaveSensorData(ctx, &models.SensorDataRequest{
		DeviceID: active.ID,
		Data:     models.JSON{"distance": 42.0},
	})
	require.NoError(t, err)

	t.Run("single lookup downgrades a quiet device for display", func(t *testing.T) {
		got, err := svc.GetDevice(ctx, quiet.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOffline, got.Status)

		got, err = svc.GetDevice(ctx, active.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOnline, got.Status)
	})

	t.Run("the stored status is untouched", func(t *testing.T) {
		stored, err := svc.Devices.Get(ctx, quiet.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOnline, stored.Status)
	})

	t.Run("list uses the batch lookup", func(t *testing.T) {
		devices, err := svc.ListDevices(ctx)
		require.NoError(t, err)

		byID := map[string]models.DeviceStatus{}
		for _, d := range devices {
			byID[d.ID] = d.Status
		}
		assert.Equal(t, models.StatusOffline, byID[quiet.ID])
		assert.Equal(t, models.StatusOnline, byID[active.ID])
	})
}

func TestListCloudNodes(t *testing.T) {
	svc := newTestRegistry()
	ctx := context.Background()

	registerTestDevice(t, svc, "Sensor A", string(models.DeviceTypeSensorNode), "")
	node := registerTestDevice(t, svc, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

	nodes, err := svc.ListCloudNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, node.ID, nodes[0].ID)
}
