// FilePath: internal/provisioning/ble/adapter.go

// Package ble implements the provisioning.Adapter port on top of the host
// Bluetooth radio via tinygo.org/x/bluetooth (BlueZ on Linux, CoreBluetooth
// on macOS, WinRT on Windows).
package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aquasense/hub/internal/provisioning"
	nuts "github.com/vaudience/go-nuts"
	"tinygo.org/x/bluetooth"
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(fmt.Sprintf("invalid UUID %q: %v", s, err))
	}
	return u
}

var serviceUUID = mustUUID(provisioning.ServiceUUID)

// Adapter drives the default host Bluetooth adapter. Peripheral selection
// is prefix-based: with no browser picker available, the first advertiser
// whose local name matches the configured prefix is chosen.
type Adapter struct {
	adapter    *bluetooth.Adapter
	namePrefix string

	mu        sync.Mutex
	enabled   bool
	addresses map[string]bluetooth.Address
	conns     map[string]*conn
}

// NewAdapter returns an adapter selecting peripherals whose advertised
// name starts with namePrefix. An empty prefix accepts any peripheral.
func NewAdapter(namePrefix string) *Adapter {
	a := &Adapter{
		adapter:    bluetooth.DefaultAdapter,
		namePrefix: namePrefix,
		addresses:  make(map[string]bluetooth.Address),
		conns:      make(map[string]*conn),
	}
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		a.mu.Lock()
		c := a.conns[device.Address.String()]
		delete(a.conns, device.Address.String())
		a.mu.Unlock()
		if c != nil {
			c.fireDisconnect()
		}
	})
	return a
}

// Available enables the radio on first use and reports whether that worked.
func (a *Adapter) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled {
		return true
	}
	if err := a.adapter.Enable(); err != nil {
		nuts.L.Warnf("[BLE] Failed to enable adapter: %v", err)
		return false
	}
	a.enabled = true
	return true
}

// Scan blocks until a matching peripheral advertises or ctx ends.
func (a *Adapter) Scan(ctx context.Context) (*provisioning.Advertisement, error) {
	var (
		mu    sync.Mutex
		found *provisioning.Advertisement
	)

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = a.adapter.StopScan()
		case <-stop:
		}
	}()
	defer close(stop)

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		if a.namePrefix != "" && !strings.HasPrefix(name, a.namePrefix) {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if found != nil {
			return
		}
		id := result.Address.String()
		found = &provisioning.Advertisement{ID: id, Name: name}

		a.mu.Lock()
		a.addresses[id] = result.Address
		a.mu.Unlock()

		_ = adapter.StopScan()
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return found, nil
}

// Connect opens a GATT connection and discovers the provisioning service.
func (a *Adapter) Connect(ctx context.Context, adv *provisioning.Advertisement) (provisioning.Conn, error) {
	a.mu.Lock()
	addr, ok := a.addresses[adv.ID]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown peripheral %s, scan first", adv.ID)
	}

	device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("gatt connect: %w", err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil || len(services) == 0 {
		_ = device.Disconnect()
		return nil, fmt.Errorf("provisioning service not found: %w", err)
	}

	chars, err := services[0].DiscoverCharacteristics(nil)
	if err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("characteristic discovery: %w", err)
	}

	c := &conn{
		device: device,
		chars:  make(map[string]bluetooth.DeviceCharacteristic, len(chars)),
	}
	for _, ch := range chars {
		c.chars[strings.ToLower(ch.UUID().String())] = ch
	}

	a.mu.Lock()
	a.conns[addr.String()] = c
	a.mu.Unlock()
	return c, nil
}

type conn struct {
	device bluetooth.Device
	chars  map[string]bluetooth.DeviceCharacteristic

	mu           sync.Mutex
	onDisconnect []func()
	closed       bool
}

func (c *conn) Characteristic(uuid string) (provisioning.Characteristic, error) {
	ch, ok := c.chars[strings.ToLower(uuid)]
	if !ok {
		return nil, fmt.Errorf("characteristic %s not found", uuid)
	}
	return &characteristic{ch: ch}, nil
}

func (c *conn) OnDisconnect(fn func()) {
	c.mu.Lock()
	c.onDisconnect = append(c.onDisconnect, fn)
	c.mu.Unlock()
}

func (c *conn) fireDisconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	handlers := append([]func(){}, c.onDisconnect...)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.device.Disconnect()
}

type characteristic struct {
	ch bluetooth.DeviceCharacteristic
}

// Read performs a blocking characteristic read. tinygo's API has no
// context plumbing; the caller's deadline only bounds the wait, not the
// underlying operation.
func (c *characteristic) Read(ctx context.Context) ([]byte, error) {
	type result struct {
		n   int
		err error
	}
	buf := make([]byte, 512)
	done := make(chan result, 1)
	go func() {
		n, err := c.ch.Read(buf)
		done <- result{n, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return buf[:r.n], nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *characteristic) Write(ctx context.Context, p []byte) error {
	done := make(chan error, 1)
	go func() {
		_, err := c.ch.WriteWithoutResponse(p)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
