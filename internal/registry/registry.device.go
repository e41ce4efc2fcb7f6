// FilePath: internal/registry/registry.device.go
package registry

import (
	"context"
	"time"

	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// RegisterDevice creates a device record from a provisioning request. New
// devices start in the Provisioning state; the operator flips them Online
// once the BLE exchange completes.
func (s *Registry) RegisterDevice(ctx context.Context, req *models.ProvisioningRequest) (*models.Device, error) {
	if req.DeviceName == "" {
		return nil, errors.NewValidationError("device name is required", nil)
	}

	now := time.Now().UTC()
	device := &models.Device{
		ID:                nuts.NID("dev", 16),
		Name:              req.DeviceName,
		DeviceType:        req.DeviceType,
		BluetoothID:       req.BluetoothID,
		MacAddress:        req.MacAddress,
		RegisteredAt:      now,
		LastSeen:          now,
		Status:            models.StatusProvisioning,
		Metadata:          models.StringMap{},
		AssignedSensorIDs: models.StringList{},
	}

	nuts.L.Infof("[Registry] Registering device: %s (%s)", device.Name, device.ID)
	if err := s.Devices.Create(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// GetDevice retrieves a single device.
func (s *Registry) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	device, err := s.Devices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.annotateLiveness(ctx, device)
	return device, nil
}

// ListDevices retrieves all registered devices.
func (s *Registry) ListDevices(ctx context.Context) ([]*models.Device, error) {
	devices, err := s.Devices.List(ctx)
	if err != nil {
		return nil, err
	}
	s.annotateLivenessBatch(ctx, devices)
	return devices, nil
}

// ListDevicesByType retrieves all devices of the given type.
func (s *Registry) ListDevicesByType(ctx context.Context, deviceType string) ([]*models.Device, error) {
	return s.Devices.ListByType(ctx, deviceType)
}

// ListCloudNodes retrieves all devices of type CloudNode.
func (s *Registry) ListCloudNodes(ctx context.Context) ([]*models.Device, error) {
	return s.ListDevicesByType(ctx, string(models.DeviceTypeCloudNode))
}

// SensorsForCloudNode retrieves the devices assigned to a cloud node.
func (s *Registry) SensorsForCloudNode(ctx context.Context, cloudNodeID string) ([]*models.Device, error) {
	return s.Devices.ListByCloudNode(ctx, cloudNodeID)
}

// UpdateDeviceStatus sets the status of a device and bumps its last seen
// timestamp.
func (s *Registry) UpdateDeviceStatus(ctx context.Context, id string, status models.DeviceStatus) error {
	if !status.Valid() {
		return errors.NewValidationError("unknown device status: "+string(status), nil)
	}

	device, err := s.Devices.Get(ctx, id)
	if err != nil {
		return err
	}

	device.Status = status
	device.LastSeen = time.Now().UTC()
	return s.Devices.Update(ctx, device)
}

// UpdateDeviceMetadata merges the given map into the device's metadata,
// overwriting by key. Keys not present in the update are untouched.
func (s *Registry) UpdateDeviceMetadata(ctx context.Context, id string, metadata map[string]string) (*models.Device, error) {
	device, err := s.Devices.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if device.Metadata == nil {
		device.Metadata = models.StringMap{}
	}
	for k, v := range metadata {
		device.Metadata[k] = v
	}
	device.LastSeen = time.Now().UTC()

	if err := s.Devices.Update(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// UpdateDeviceType changes the role of a device and keeps the assignment
// graph consistent across the transition. Transitions outside the two
// recognized roles only update the type and last seen timestamp.
func (s *Registry) UpdateDeviceType(ctx context.Context, id string, newType string) (*models.Device, error) {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	device, err := s.Devices.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldType := device.DeviceType
	device.DeviceType = newType
	device.LastSeen = time.Now().UTC()

	// A cloud node cannot itself report to another cloud node. The old
	// assignment is captured before clearing so the former cloud node's
	// sensor list can be updated as well.
	if oldType == string(models.DeviceTypeSensorNode) && newType == string(models.DeviceTypeCloudNode) {
		oldCloudNodeID := device.CloudNodeID
		device.CloudNodeID = ""

		if oldCloudNodeID != "" {
			oldCloudNode, err := s.Devices.Get(ctx, oldCloudNodeID)
			if err == nil && oldCloudNode.AssignedSensorIDs.Contains(id) {
				oldCloudNode.AssignedSensorIDs = oldCloudNode.AssignedSensorIDs.Remove(id)
				if err := s.Devices.Update(ctx, oldCloudNode); err != nil {
					return nil, err
				}
			}
		}
	}

	// Downgrading a cloud node orphans every sensor that reported to it.
	if oldType == string(models.DeviceTypeCloudNode) && newType == string(models.DeviceTypeSensorNode) {
		sensors, err := s.Devices.ListByCloudNode(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, sensor := range sensors {
			sensor.CloudNodeID = ""
			delete(sensor.Metadata, models.MetadataKeyCloudNodeMAC)
			if err := s.Devices.Update(ctx, sensor); err != nil {
				return nil, err
			}
		}
		device.AssignedSensorIDs = models.StringList{}
	}

	nuts.L.Infof("[Registry] Device %s type changed: %s -> %s", id, oldType, newType)
	if err := s.Devices.Update(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// AssignSensorToCloudNode links a sensor node to a cloud node and returns
// the cloud node's MAC address. The caller is responsible for writing that
// MAC to the physical sensor over the provisioning transport; this
// operation never contacts the device. Re-assigning the same pair is
// idempotent.
func (s *Registry) AssignSensorToCloudNode(ctx context.Context, sensorID, cloudNodeID string) (string, error) {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	sensor, err := s.Devices.Get(ctx, sensorID)
	if err != nil {
		return "", errors.NewNotFoundError("Sensor not found", err)
	}

	cloudNode, err := s.Devices.Get(ctx, cloudNodeID)
	if err != nil {
		return "", errors.NewNotFoundError("Cloud node not found", err)
	}

	if cloudNode.MacAddress == "" {
		return "", errors.NewPreconditionError("Cloud node does not have a MAC address", nil)
	}

	sensor.CloudNodeID = cloudNodeID
	if sensor.Metadata == nil {
		sensor.Metadata = models.StringMap{}
	}
	sensor.Metadata[models.MetadataKeyCloudNodeMAC] = cloudNode.MacAddress
	sensor.LastSeen = time.Now().UTC()

	if err := s.Devices.Update(ctx, sensor); err != nil {
		return "", err
	}

	if !cloudNode.AssignedSensorIDs.Contains(sensorID) {
		cloudNode.AssignedSensorIDs = append(cloudNode.AssignedSensorIDs, sensorID)
		if err := s.Devices.Update(ctx, cloudNode); err != nil {
			return "", err
		}
	}

	nuts.L.Infof("[Registry] Assigned sensor %s to cloud node %s (%s)",
		sensorID, cloudNodeID, cloudNode.MacAddress)
	return cloudNode.MacAddress, nil
}

// DeleteDevice removes a device together with its telemetry and its edges
// in the assignment graph.
func (s *Registry) DeleteDevice(ctx context.Context, id string) error {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	device, err := s.Devices.Get(ctx, id)
	if err != nil {
		return err
	}

	nuts.L.Infof("[Registry] Deleting device: %s", id)
	return s.Cleanup.DeleteDevice(ctx, device)
}

// annotateLiveness downgrades a stored Online status when the presence
// cache says the device has gone quiet. Display-only; nothing is persisted.
func (s *Registry) annotateLiveness(ctx context.Context, device *models.Device) {
	if s.presence == nil || device.Status != models.StatusOnline {
		return
	}
	online, err := s.presence.Online(ctx, device.ID)
	if err != nil {
		nuts.L.Warnf("[Registry] Presence lookup failed for %s: %v", device.ID, err)
		return
	}
	if !online {
		device.Status = models.StatusOffline
	}
}

// BatchPresence is the optional bulk lookup a presence cache can offer.
type BatchPresence interface {
	OnlineBatch(ctx context.Context, deviceIDs []string) (map[string]bool, error)
}

// annotateLivenessBatch is annotateLiveness over a device list, using one
// bulk lookup when the presence cache supports it.
func (s *Registry) annotateLivenessBatch(ctx context.Context, devices []*models.Device) {
	if s.presence == nil {
		return
	}

	batch, ok := s.presence.(BatchPresence)
	if !ok {
		for _, d := range devices {
			s.annotateLiveness(ctx, d)
		}
		return
	}

	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		if d.Status == models.StatusOnline {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	online, err := batch.OnlineBatch(ctx, ids)
	if err != nil {
		nuts.L.Warnf("[Registry] Batch presence lookup failed: %v", err)
		return
	}
	for _, d := range devices {
		if d.Status == models.StatusOnline && !online[d.ID] {
			d.Status = models.StatusOffline
		}
	}
}
