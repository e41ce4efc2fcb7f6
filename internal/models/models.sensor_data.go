// FilePath: internal/models/models.sensor_data.go
package models

import "time"

// SensorData is a single telemetry report from a device. Readings are
// immutable once stored; the device name is denormalized for display.
type SensorData struct {
	ID         string    `json:"id" db:"id"`
	DeviceID   string    `json:"deviceId" db:"device_id"`
	DeviceName string    `json:"deviceName" db:"device_name"`
	ReceivedAt time.Time `json:"receivedAt" db:"received_at"`
	Data       JSON      `json:"data" db:"data"`
}

// SensorDataRequest is the telemetry ingestion payload.
type SensorDataRequest struct {
	DeviceID string `json:"deviceId"`
	Data     JSON   `json:"data"`
}

// SensorDataResponse wraps a stored reading for the ingestion endpoint.
type SensorDataResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *SensorData `json:"data,omitempty"`
}

// SensorDataFilters are the query parameters accepted by the sensor data
// listing endpoints, decoded with gorilla/schema.
type SensorDataFilters struct {
	Start time.Time `schema:"start"`
	End   time.Time `schema:"end"`
	Limit int       `schema:"limit"`
}
