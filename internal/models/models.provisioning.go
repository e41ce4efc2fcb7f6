// FilePath: internal/models/models.provisioning.go
package models

// ProvisioningRequest is the device registration payload.
type ProvisioningRequest struct {
	DeviceName  string `json:"deviceName"`
	BluetoothID string `json:"bluetoothId"`
	DeviceType  string `json:"deviceType"`
	MacAddress  string `json:"macAddress,omitempty"`
}

// ProvisioningResponse wraps the registered device.
type ProvisioningResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Device  *Device `json:"device,omitempty"`
}

// AssignSensorRequest links a sensor node to a cloud node.
type AssignSensorRequest struct {
	SensorID    string `json:"sensorId"`
	CloudNodeID string `json:"cloudNodeId"`
}

// AssignSensorResponse carries the cloud node MAC address the caller must
// write back to the physical sensor over the provisioning transport.
type AssignSensorResponse struct {
	Message             string `json:"message"`
	CloudNodeMacAddress string `json:"cloudNodeMacAddress"`
}

// UpdateDeviceTypeRequest changes the role of a device.
type UpdateDeviceTypeRequest struct {
	DeviceType string `json:"deviceType"`
}

// DeviceInfo is reported live by a connected peripheral during a
// provisioning session. It is never persisted; a fresh copy is read each
// time the operator connects.
type DeviceInfo struct {
	MacAddress string `json:"macAddress"`
	DeviceType string `json:"deviceType"`
	Properties JSON   `json:"properties"`
}
