// FilePath: internal/provisioning/gatt.go
package provisioning

import "context"

// GATT layout of the provisioning service on the peripheral. One service,
// five characteristics, all payloads UTF-8 text (JSON where noted).
const (
	ServiceUUID = "0000ff00-0000-1000-8000-00805f9b34fb"

	CharWifiSSID     = "0000ff01-0000-1000-8000-00805f9b34fb" // write
	CharWifiPassword = "0000ff02-0000-1000-8000-00805f9b34fb" // write
	CharStatus       = "0000ff03-0000-1000-8000-00805f9b34fb" // read
	CharDeviceInfo   = "0000ff04-0000-1000-8000-00805f9b34fb" // read, JSON
	CharProperties   = "0000ff05-0000-1000-8000-00805f9b34fb" // read/write, JSON
)

// CharacteristicUUIDs lists every characteristic the transport needs. A
// connection that cannot resolve all of them is refused.
var CharacteristicUUIDs = []string{
	CharWifiSSID,
	CharWifiPassword,
	CharStatus,
	CharDeviceInfo,
	CharProperties,
}

// Advertisement describes a discovered peripheral before connecting.
type Advertisement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Adapter is the platform Bluetooth central the transport drives. The ble
// package provides the hardware implementation; tests substitute a mock.
type Adapter interface {
	// Available reports whether the platform has a usable Bluetooth radio.
	Available() bool
	// Scan discovers peripherals until one is selected or ctx ends.
	// A nil advertisement with a nil error means nothing was picked.
	Scan(ctx context.Context) (*Advertisement, error)
	// Connect opens a GATT connection to a previously discovered peripheral.
	Connect(ctx context.Context, adv *Advertisement) (Conn, error)
}

// Conn is an open GATT connection.
type Conn interface {
	// Characteristic resolves a characteristic of the provisioning service.
	Characteristic(uuid string) (Characteristic, error)
	// OnDisconnect registers a callback fired on peripheral-initiated
	// disconnects.
	OnDisconnect(fn func())
	Close() error
}

// Characteristic is a single GATT characteristic handle.
type Characteristic interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, p []byte) error
}
