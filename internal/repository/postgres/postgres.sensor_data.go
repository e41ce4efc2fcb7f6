// FilePath: internal/repository/postgres/postgres.sensor_data.go
package postgres

import (
	"context"
	"time"

	"github.com/aquasense/hub/internal/database"
	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type SensorDataRepo struct {
	PostgresBaseRepo
}

func NewSensorDataRepository(db database.DB) (*SensorDataRepo, error) {
	repo := &SensorDataRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SensorDataRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sensor_data (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			device_name TEXT NOT NULL DEFAULT '',
			received_at TIMESTAMPTZ NOT NULL,
			data JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_data_device_received
			ON sensor_data(device_id, received_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_data_received
			ON sensor_data(received_at DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize sensor data schema", err)
		}
	}
	return nil
}

func (r *SensorDataRepo) Insert(ctx context.Context, data *models.SensorData) error {
	query := `
		INSERT INTO sensor_data (id, device_id, device_name, received_at, data)
		VALUES (:id, :device_id, :device_name, :received_at, :data)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, data)
	if err != nil {
		return errors.NewDatabaseError("failed to insert sensor data", err)
	}
	return nil
}

func (r *SensorDataRepo) List(ctx context.Context) ([]*models.SensorData, error) {
	out := []*models.SensorData{}
	query := `SELECT * FROM sensor_data ORDER BY received_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &out, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor data", err)
	}
	return out, nil
}

func (r *SensorDataRepo) ListByDevice(ctx context.Context, deviceID string, limit int) ([]*models.SensorData, error) {
	out := []*models.SensorData{}

	if limit > 0 {
		query := `SELECT * FROM sensor_data WHERE device_id = $1 ORDER BY received_at DESC LIMIT $2`
		if err := r.db.GetDB().SelectContext(ctx, &out, query, deviceID, limit); err != nil {
			return nil, errors.NewDatabaseError("failed to list sensor data by device", err)
		}
		return out, nil
	}

	query := `SELECT * FROM sensor_data WHERE device_id = $1 ORDER BY received_at DESC`
	if err := r.db.GetDB().SelectContext(ctx, &out, query, deviceID); err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor data by device", err)
	}
	return out, nil
}

func (r *SensorDataRepo) ListByTimeRange(ctx context.Context, start, end time.Time) ([]*models.SensorData, error) {
	out := []*models.SensorData{}
	query := `
		SELECT * FROM sensor_data
		WHERE received_at >= $1 AND received_at <= $2
		ORDER BY received_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &out, query, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor data by time range", err)
	}
	return out, nil
}

func (r *SensorDataRepo) DeleteByDevice(ctx context.Context, deviceID string, tx database.Transaction) error {
	query := `DELETE FROM sensor_data WHERE device_id = $1`

	var rows int64
	if tx != nil {
		result, err := tx.ExecContext(ctx, query, deviceID)
		if err != nil {
			return errors.NewDatabaseError("failed to delete sensor data", err)
		}
		rows, _ = result.RowsAffected()
	} else {
		result, err := r.db.GetDB().ExecContext(ctx, query, deviceID)
		if err != nil {
			return errors.NewDatabaseError("failed to delete sensor data", err)
		}
		rows, _ = result.RowsAffected()
	}

	nuts.L.Infof("[SensorDataRepo] Deleted %d readings for device %s", rows, deviceID)
	return nil
}
