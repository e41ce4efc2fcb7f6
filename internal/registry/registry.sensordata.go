// FilePath: internal/registry/registry.sensordata.go
package registry

import (
	"context"
	"time"

	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SaveSensorData stores a telemetry report. The owning device's name is
// denormalized onto the reading; an unknown device id is accepted and
// recorded against "Unknown Device" so late registrations do not lose data.
func (s *Registry) SaveSensorData(ctx context.Context, req *models.SensorDataRequest) (*models.SensorData, error) {
	if req.DeviceID == "" {
		return nil, errors.NewValidationError("device id is required", nil)
	}

	now := time.Now().UTC()
	deviceName := "Unknown Device"

	device, err := s.Devices.Get(ctx, req.DeviceID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if device != nil {
		deviceName = device.Name
	}

	data := &models.SensorData{
		ID:         nuts.NID("sd", 16),
		DeviceID:   req.DeviceID,
		DeviceName: deviceName,
		ReceivedAt: now,
		Data:       req.Data,
	}
	if data.Data == nil {
		data.Data = models.JSON{}
	}

	if err := s.SensorData.Insert(ctx, data); err != nil {
		return nil, err
	}

	// A reporting device is by definition online.
	if device != nil {
		device.Status = models.StatusOnline
		device.LastSeen = now
		if err := s.Devices.Update(ctx, device); err != nil {
			nuts.L.Warnf("[Registry] Failed to update device %s after telemetry: %v", device.ID, err)
		}
	}

	if s.presence != nil {
		if err := s.presence.Touch(ctx, req.DeviceID); err != nil {
			nuts.L.Warnf("[Registry] Presence touch failed for %s: %v", req.DeviceID, err)
		}
	}

	return data, nil
}

// ListSensorData retrieves all readings, newest first.
func (s *Registry) ListSensorData(ctx context.Context) ([]*models.SensorData, error) {
	return s.SensorData.List(ctx)
}

// SensorDataForDevice retrieves readings for one device, newest first.
// A limit of 0 means no limit.
func (s *Registry) SensorDataForDevice(ctx context.Context, deviceID string, limit int) ([]*models.SensorData, error) {
	return s.SensorData.ListByDevice(ctx, deviceID, limit)
}

// SensorDataInRange retrieves readings inside [start, end], newest first.
func (s *Registry) SensorDataInRange(ctx context.Context, start, end time.Time) ([]*models.SensorData, error) {
	if end.Before(start) {
		return nil, errors.NewValidationError("end time before start time", nil)
	}
	return s.SensorData.ListByTimeRange(ctx, start, end)
}
