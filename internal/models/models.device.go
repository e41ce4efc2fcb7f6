// FilePath: internal/models/models.device.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSON is a wrapper around map[string]interface{} for database storage
type JSON map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

// StringMap is a string→string map stored as a JSONB column
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(StringMap{})
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &m)
}

// StringList is a list of ids stored as a JSONB column
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(StringList{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &l)
}

// Contains reports whether id is present in the list.
func (l StringList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Remove returns the list without id.
func (l StringList) Remove(id string) StringList {
	out := make(StringList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type DeviceType string

const (
	DeviceTypeSensorNode DeviceType = "SensorNode"
	DeviceTypeCloudNode  DeviceType = "CloudNode"
)

type DeviceStatus string

const (
	StatusOffline      DeviceStatus = "Offline"
	StatusOnline       DeviceStatus = "Online"
	StatusProvisioning DeviceStatus = "Provisioning"
	StatusError        DeviceStatus = "Error"
)

// Valid reports whether s is one of the recognized status values.
func (s DeviceStatus) Valid() bool {
	switch s {
	case StatusOffline, StatusOnline, StatusProvisioning, StatusError:
		return true
	}
	return false
}

// MetadataKeyCloudNodeMAC is the metadata key a sensor carries for the MAC
// address of its assigned cloud node.
const MetadataKeyCloudNodeMAC = "cloudNodeMAC"

// Device is a registered physical unit. A SensorNode reports to exactly one
// CloudNode via CloudNodeID; a CloudNode lists its sensors in
// AssignedSensorIDs and must hold a MAC address to be an assignment target.
type Device struct {
	ID                string       `json:"id" db:"id"`
	Name              string       `json:"name" db:"name"`
	DeviceType        string       `json:"deviceType" db:"device_type"`
	BluetoothID       string       `json:"bluetoothId" db:"bluetooth_id"`
	IPAddress         string       `json:"ipAddress,omitempty" db:"ip_address"`
	MacAddress        string       `json:"macAddress,omitempty" db:"mac_address"`
	RegisteredAt      time.Time    `json:"registeredAt" db:"registered_at"`
	LastSeen          time.Time    `json:"lastSeen" db:"last_seen"`
	Status            DeviceStatus `json:"status" db:"status"`
	Metadata          StringMap    `json:"metadata" db:"metadata"`
	CloudNodeID       string       `json:"cloudNodeId,omitempty" db:"cloud_node_id"`
	AssignedSensorIDs StringList   `json:"assignedSensorIds" db:"assigned_sensor_ids"`
}

// IsCloudNode reports whether the device acts as a cloud node.
func (d *Device) IsCloudNode() bool {
	return d.DeviceType == string(DeviceTypeCloudNode)
}

// IsSensorNode reports whether the device acts as a sensor node.
func (d *Device) IsSensorNode() bool {
	return d.DeviceType == string(DeviceTypeSensorNode)
}
