// FilePath: internal/registry/registry.go

// Package registry owns device records and the sensor↔cloud-node assignment
// graph. All persistence goes through the repository interfaces; the
// provisioning transport never touches these records directly.
package registry

import (
	"context"
	"sync"

	"github.com/aquasense/hub/internal/cleanup"
	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/repository"
)

// Presence is the liveness cache consulted when reporting device status.
// A nil Presence disables liveness annotation.
type Presence interface {
	Touch(ctx context.Context, deviceID string) error
	Online(ctx context.Context, deviceID string) (bool, error)
}

// Registry contains the repositories and service-wide dependencies
type Registry struct {
	Devices    repository.DeviceRepository
	SensorData repository.SensorDataRepository
	Cleanup    *cleanup.CleanupService

	presence Presence

	// graphMu serializes mutations of the assignment graph. Concurrent
	// read-modify-write cycles on a cloud node's assigned sensor list would
	// otherwise lose appends.
	graphMu sync.Mutex
}

// New creates a new Registry instance
func New(
	devices repository.DeviceRepository,
	sensorData repository.SensorDataRepository,
	presence Presence,
) *Registry {
	svc := &Registry{
		Devices:    devices,
		SensorData: sensorData,
		presence:   presence,
	}
	svc.Cleanup = cleanup.New(devices, sensorData)
	return svc
}

// Validate checks if all required repositories are initialized
func (s *Registry) Validate() error {
	if s.Devices == nil {
		return ErrMissingRepository("devices")
	}
	if s.SensorData == nil {
		return ErrMissingRepository("sensorData")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
