// FilePath: internal/repository/memory/memory.sensor_data.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aquasense/hub/internal/database"
	"github.com/aquasense/hub/internal/models"
)

type SensorDataRepo struct {
	mu       sync.RWMutex
	readings []*models.SensorData
}

func NewSensorDataRepository() *SensorDataRepo {
	return &SensorDataRepo{}
}

func (r *SensorDataRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return noopTx{}, nil
}

func cloneReading(d *models.SensorData) *models.SensorData {
	out := *d
	out.Data = make(models.JSON, len(d.Data))
	for k, v := range d.Data {
		out.Data[k] = v
	}
	return &out
}

func (r *SensorDataRepo) Insert(ctx context.Context, data *models.SensorData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.readings = append(r.readings, cloneReading(data))
	return nil
}

func (r *SensorDataRepo) List(ctx context.Context) ([]*models.SensorData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.SensorData, 0, len(r.readings))
	for _, d := range r.readings {
		out = append(out, cloneReading(d))
	}
	sortByReceivedAt(out)
	return out, nil
}

func (r *SensorDataRepo) ListByDevice(ctx context.Context, deviceID string, limit int) ([]*models.SensorData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.SensorData{}
	for _, d := range r.readings {
		if d.DeviceID == deviceID {
			out = append(out, cloneReading(d))
		}
	}
	sortByReceivedAt(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SensorDataRepo) ListByTimeRange(ctx context.Context, start, end time.Time) ([]*models.SensorData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.SensorData{}
	for _, d := range r.readings {
		if !d.ReceivedAt.Before(start) && !d.ReceivedAt.After(end) {
			out = append(out, cloneReading(d))
		}
	}
	sortByReceivedAt(out)
	return out, nil
}

func (r *SensorDataRepo) DeleteByDevice(ctx context.Context, deviceID string, tx database.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.readings[:0]
	for _, d := range r.readings {
		if d.DeviceID != deviceID {
			kept = append(kept, d)
		}
	}
	r.readings = kept
	return nil
}

func sortByReceivedAt(readings []*models.SensorData) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].ReceivedAt.After(readings[j].ReceivedAt)
	})
}
