// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aquasense/hub/internal/database"
	"github.com/aquasense/hub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// DeviceRepository defines the interface for device record operations
type DeviceRepository interface {
	database.Repository
	Create(ctx context.Context, device *models.Device) error
	Get(ctx context.Context, id string) (*models.Device, error)
	Update(ctx context.Context, device *models.Device) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Device, error)
	ListByType(ctx context.Context, deviceType string) ([]*models.Device, error)
	ListByCloudNode(ctx context.Context, cloudNodeID string) ([]*models.Device, error)
	UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error
}

// SensorDataRepository defines the interface for telemetry readings.
// Readings are append-only; the only delete path is the cascade that runs
// when the owning device is removed.
type SensorDataRepository interface {
	database.Repository
	Insert(ctx context.Context, data *models.SensorData) error
	List(ctx context.Context) ([]*models.SensorData, error)
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]*models.SensorData, error)
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]*models.SensorData, error)
	DeleteByDevice(ctx context.Context, deviceID string, tx database.Transaction) error
}
