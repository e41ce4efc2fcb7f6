package cleanup

import (
	"context"
	"fmt"

	"github.com/aquasense/hub/internal/models"
	"github.com/aquasense/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// CleanupService coordinates device deletion: telemetry removal plus the
// assignment-graph edges the deleted device participates in.
type CleanupService struct {
	devices    repository.DeviceRepository
	sensorData repository.SensorDataRepository
	events     *nuts.EventEmitter
}

// New creates a new CleanupService
func New(
	devices repository.DeviceRepository,
	sensorData repository.SensorDataRepository,
) *CleanupService {
	return &CleanupService{
		devices:    devices,
		sensorData: sensorData,
		events:     nuts.NewEventEmitter(),
	}
}

// DeleteDevice deletes a device and all its associated data. A deleted
// cloud node orphans its sensors; a deleted sensor is removed from its
// cloud node's assigned list.
func (s *CleanupService) DeleteDevice(ctx context.Context, device *models.Device) error {
	// Start transaction
	tx, err := s.devices.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	if device.IsCloudNode() {
		// Orphan every sensor that reported to this cloud node.
		sensors, err := s.devices.ListByCloudNode(ctx, device.ID)
		if err != nil {
			return fmt.Errorf("failed to list assigned sensors: %w", err)
		}
		for _, sensor := range sensors {
			sensor.CloudNodeID = ""
			delete(sensor.Metadata, models.MetadataKeyCloudNodeMAC)
			if err := s.devices.Update(ctx, sensor); err != nil {
				return fmt.Errorf("failed to unassign sensor: %w", err)
			}
			s.events.Emit("sensor.unassigned", sensor.ID)
		}
	} else if device.CloudNodeID != "" {
		// Unlink the sensor from its cloud node's assigned list.
		cloudNode, err := s.devices.Get(ctx, device.CloudNodeID)
		if err == nil && cloudNode.AssignedSensorIDs.Contains(device.ID) {
			cloudNode.AssignedSensorIDs = cloudNode.AssignedSensorIDs.Remove(device.ID)
			if err := s.devices.Update(ctx, cloudNode); err != nil {
				return fmt.Errorf("failed to unlink sensor from cloud node: %w", err)
			}
		}
	}

	// Delete telemetry for the device
	if err := s.sensorData.DeleteByDevice(ctx, device.ID, tx); err != nil {
		return fmt.Errorf("failed to delete sensor data: %w", err)
	}

	// Finally, delete the device
	if err := s.devices.Delete(ctx, device.ID); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Emit event after successful deletion
	s.events.Emit("device.deleted", device.ID)
	return nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, "cleanup_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
