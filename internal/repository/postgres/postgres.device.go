// FilePath: internal/repository/postgres/postgres.device.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aquasense/hub/internal/database"
	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
)

type DeviceRepo struct {
	PostgresBaseRepo
}

func NewDeviceRepository(db database.DB) (*DeviceRepo, error) {
	repo := &DeviceRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *DeviceRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			device_type TEXT NOT NULL DEFAULT '',
			bluetooth_id TEXT NOT NULL DEFAULT '',
			ip_address TEXT NOT NULL DEFAULT '',
			mac_address TEXT NOT NULL DEFAULT '',
			registered_at TIMESTAMPTZ NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'Offline',
			metadata JSONB NOT NULL DEFAULT '{}',
			cloud_node_id TEXT NOT NULL DEFAULT '',
			assigned_sensor_ids JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_device_type ON devices(device_type)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_cloud_node_id ON devices(cloud_node_id)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize devices schema", err)
		}
	}
	return nil
}

func (r *DeviceRepo) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (
			id, name, device_type, bluetooth_id, ip_address, mac_address,
			registered_at, last_seen, status, metadata,
			cloud_node_id, assigned_sensor_ids
		) VALUES (
			:id, :name, :device_type, :bluetooth_id, :ip_address, :mac_address,
			:registered_at, :last_seen, :status, :metadata,
			:cloud_node_id, :assigned_sensor_ids
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, device)
	if err != nil {
		return errors.NewDatabaseError("failed to create device", err)
	}
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, id string) (*models.Device, error) {
	device := &models.Device{}
	query := `SELECT * FROM devices WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, device, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("device not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}

func (r *DeviceRepo) Update(ctx context.Context, device *models.Device) error {
	query := `
		UPDATE devices SET
			name = :name,
			device_type = :device_type,
			bluetooth_id = :bluetooth_id,
			ip_address = :ip_address,
			mac_address = :mac_address,
			last_seen = :last_seen,
			status = :status,
			metadata = :metadata,
			cloud_node_id = :cloud_node_id,
			assigned_sensor_ids = :assigned_sensor_ids
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, device)
	if err != nil {
		return errors.NewDatabaseError("failed to update device", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}

	return nil
}

func (r *DeviceRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM devices WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete device", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}

	return nil
}

func (r *DeviceRepo) List(ctx context.Context) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `SELECT * FROM devices ORDER BY registered_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &devices, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	return devices, nil
}

func (r *DeviceRepo) ListByType(ctx context.Context, deviceType string) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `SELECT * FROM devices WHERE device_type = $1 ORDER BY registered_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &devices, query, deviceType)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices by type", err)
	}
	return devices, nil
}

func (r *DeviceRepo) ListByCloudNode(ctx context.Context, cloudNodeID string) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `SELECT * FROM devices WHERE cloud_node_id = $1 ORDER BY registered_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &devices, query, cloudNodeID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices by cloud node", err)
	}
	return devices, nil
}

func (r *DeviceRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	query := `UPDATE devices SET last_seen = $1 WHERE id = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, lastSeen, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last seen", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}

	return nil
}
