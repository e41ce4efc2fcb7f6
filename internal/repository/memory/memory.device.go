// FilePath: internal/repository/memory/memory.device.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aquasense/hub/internal/database"
	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
)

type DeviceRepo struct {
	mu      sync.RWMutex
	devices map[string]*models.Device
}

func NewDeviceRepository() *DeviceRepo {
	return &DeviceRepo{devices: make(map[string]*models.Device)}
}

func (r *DeviceRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return noopTx{}, nil
}

func cloneDevice(d *models.Device) *models.Device {
	out := *d
	out.Metadata = make(models.StringMap, len(d.Metadata))
	for k, v := range d.Metadata {
		out.Metadata[k] = v
	}
	out.AssignedSensorIDs = append(models.StringList{}, d.AssignedSensorIDs...)
	return &out
}

func (r *DeviceRepo) Create(ctx context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[device.ID]; ok {
		return errors.NewDatabaseError("device already exists", nil)
	}
	r.devices[device.ID] = cloneDevice(device)
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, id string) (*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.devices[id]
	if !ok {
		return nil, errors.NewNotFoundError("device not found", nil)
	}
	return cloneDevice(device), nil
}

func (r *DeviceRepo) Update(ctx context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[device.ID]; !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	r.devices[device.ID] = cloneDevice(device)
	return nil
}

func (r *DeviceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	delete(r.devices, id)
	return nil
}

func (r *DeviceRepo) List(ctx context.Context) ([]*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, cloneDevice(d))
	}
	sortByRegisteredAt(out)
	return out, nil
}

func (r *DeviceRepo) ListByType(ctx context.Context, deviceType string) ([]*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Device{}
	for _, d := range r.devices {
		if d.DeviceType == deviceType {
			out = append(out, cloneDevice(d))
		}
	}
	sortByRegisteredAt(out)
	return out, nil
}

func (r *DeviceRepo) ListByCloudNode(ctx context.Context, cloudNodeID string) ([]*models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Device{}
	for _, d := range r.devices {
		if d.CloudNodeID == cloudNodeID {
			out = append(out, cloneDevice(d))
		}
	}
	sortByRegisteredAt(out)
	return out, nil
}

func (r *DeviceRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[id]
	if !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	device.LastSeen = lastSeen
	return nil
}

func sortByRegisteredAt(devices []*models.Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].RegisteredAt.After(devices[j].RegisteredAt)
	})
}
