// FilePath: internal/provisioning/transport.go

// Package provisioning drives the BLE configuration exchange with ESP32
// peripherals: discover, connect, read device info, write WiFi credentials
// and property updates. The transport performs no retries; retry policy
// belongs to the orchestrating caller.
package provisioning

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultScanTimeout = 30 * time.Second
	defaultOpTimeout   = 10 * time.Second
	defaultSettleDelay = 500 * time.Millisecond
)

// Transport is the provisioning protocol driver. It tracks at most one
// session; GATT is single-peer in this design, so a second connect while a
// session is open is rejected rather than serialized.
type Transport struct {
	adapter     Adapter
	scanTimeout time.Duration
	opTimeout   time.Duration
	settleDelay time.Duration

	mu     sync.Mutex
	active *Session
}

type Option func(*Transport)

// WithScanTimeout bounds peripheral discovery.
func WithScanTimeout(d time.Duration) Option {
	return func(t *Transport) { t.scanTimeout = d }
}

// WithOpTimeout bounds a single characteristic operation. The observed
// exchange blocks indefinitely on a hung characteristic; the timeout is a
// deliberate deviation.
func WithOpTimeout(d time.Duration) Option {
	return func(t *Transport) { t.opTimeout = d }
}

// WithSettleDelay sets the wait between a properties write and the
// acknowledgement read-back.
func WithSettleDelay(d time.Duration) Option {
	return func(t *Transport) { t.settleDelay = d }
}

// New creates a transport over the given adapter.
func New(adapter Adapter, opts ...Option) *Transport {
	t := &Transport{
		adapter:     adapter,
		scanTimeout: defaultScanTimeout,
		opTimeout:   defaultOpTimeout,
		settleDelay: defaultSettleDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Scan discovers a peripheral without connecting.
func (t *Transport) Scan(ctx context.Context) (*Advertisement, error) {
	if !t.adapter.Available() {
		return nil, errors.NewUnavailableError("bluetooth is not available on this platform", nil)
	}

	scanCtx, cancel := context.WithTimeout(ctx, t.scanTimeout)
	defer cancel()

	adv, err := t.adapter.Scan(scanCtx)
	if err != nil {
		if scanCtx.Err() != nil {
			return nil, errors.NewUserCancelledError("no device selected", err)
		}
		return nil, errors.NewUnavailableError("device scan failed", err)
	}
	if adv == nil {
		return nil, errors.NewUserCancelledError("no device selected", nil)
	}

	nuts.L.Infof("[Provisioning] Discovered peripheral %s (%s)", adv.Name, adv.ID)
	return adv, nil
}

// Connect opens a GATT session to a discovered peripheral and resolves the
// five provisioning characteristics. The returned session is the handle for
// every subsequent operation; there is no hidden current-device state.
// Callers should wait a settle delay before the first read — immediate
// reads after connect fail non-deterministically on the peripheral side.
func (t *Transport) Connect(ctx context.Context, adv *Advertisement) (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		return nil, errors.NewAlreadyConnectedError("a provisioning session is already open", nil)
	}

	opCtx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	conn, err := t.adapter.Connect(opCtx, adv)
	if err != nil {
		return nil, errors.NewConnectionFailedError("failed to connect to device", err)
	}

	chars := make(map[string]Characteristic, len(CharacteristicUUIDs))
	for _, uuid := range CharacteristicUUIDs {
		c, err := conn.Characteristic(uuid)
		if err != nil {
			_ = conn.Close()
			return nil, errors.NewConnectionFailedError("provisioning characteristic missing: "+uuid, err)
		}
		chars[uuid] = c
	}

	sess := &Session{
		transport: t,
		adv:       adv,
		conn:      conn,
		chars:     chars,
	}

	// Unsolicited peripheral disconnects invalidate the session; there is
	// no automatic reconnect.
	conn.OnDisconnect(func() {
		nuts.L.Warnf("[Provisioning] Peripheral %s disconnected", adv.ID)
		sess.invalidate()
		t.release(sess)
	})

	t.active = sess
	nuts.L.Infof("[Provisioning] Connected to %s (%s)", adv.Name, adv.ID)
	return sess, nil
}

func (t *Transport) release(sess *Session) {
	t.mu.Lock()
	if t.active == sess {
		t.active = nil
	}
	t.mu.Unlock()
}

// Session is one open provisioning exchange with a single peripheral.
type Session struct {
	transport *Transport
	adv       *Advertisement
	conn      Conn
	chars     map[string]Characteristic

	mu     sync.Mutex
	closed bool
	info   *models.DeviceInfo
}

// Peripheral returns the descriptor of the connected peripheral.
func (s *Session) Peripheral() *Advertisement {
	return s.adv
}

// DeviceInfo returns the most recently read device info, or nil if none
// has been read in this session.
func (s *Session) DeviceInfo() *models.DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *Session) invalidate() {
	s.mu.Lock()
	s.closed = true
	s.info = nil
	s.mu.Unlock()
}

func (s *Session) characteristic(uuid string) (Characteristic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.NewNotConnectedError("no device connected", nil)
	}
	return s.chars[uuid], nil
}

func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.transport.opTimeout)
}

// ReadDeviceInfo reads and decodes the device-info characteristic. On a
// decode failure any previously read info is left untouched.
func (s *Session) ReadDeviceInfo(ctx context.Context) (*models.DeviceInfo, error) {
	c, err := s.characteristic(CharDeviceInfo)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	payload, err := c.Read(opCtx)
	if err != nil {
		return nil, errors.NewConnectionFailedError("failed to read device info", err)
	}

	var info models.DeviceInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, errors.NewDecodeError("device info is not valid JSON", err)
	}
	if info.Properties == nil {
		info.Properties = models.JSON{}
	}

	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()

	nuts.L.Infof("[Provisioning] Device info: mac=%s type=%s", info.MacAddress, info.DeviceType)
	return &info, nil
}

// WriteWifiCredentials writes the SSID characteristic and then the password
// characteristic. The SSID write must complete before the password write
// begins; on an SSID failure the password characteristic is never touched.
func (s *Session) WriteWifiCredentials(ctx context.Context, ssid, password string) error {
	ssidChar, err := s.characteristic(CharWifiSSID)
	if err != nil {
		return err
	}

	opCtx, cancel := s.opContext(ctx)
	err = ssidChar.Write(opCtx, []byte(ssid))
	cancel()
	if err != nil {
		return errors.NewWriteFailedError("failed to write WiFi SSID", err)
	}

	passChar, err := s.characteristic(CharWifiPassword)
	if err != nil {
		return err
	}

	opCtx, cancel = s.opContext(ctx)
	err = passChar.Write(opCtx, []byte(password))
	cancel()
	if err != nil {
		return errors.NewWriteFailedError("failed to write WiFi password", err)
	}

	nuts.L.Infof("[Provisioning] WiFi credentials written to %s", s.adv.ID)
	return nil
}

// ReadStatus reads the status characteristic. The value is an opaque
// string; interpretation is up to the caller.
func (s *Session) ReadStatus(ctx context.Context) (string, error) {
	c, err := s.characteristic(CharStatus)
	if err != nil {
		return "", err
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	payload, err := c.Read(opCtx)
	if err != nil {
		return "", errors.NewConnectionFailedError("failed to read status", err)
	}
	return string(payload), nil
}

// UpdateProperties writes the given properties as JSON and, after a settle
// delay, reads the same characteristic back. The acknowledgement string is
// returned exactly as the peripheral produced it.
func (s *Session) UpdateProperties(ctx context.Context, properties models.JSON) (string, error) {
	c, err := s.characteristic(CharProperties)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(properties)
	if err != nil {
		return "", errors.NewDecodeError("failed to encode properties", err)
	}

	opCtx, cancel := s.opContext(ctx)
	err = c.Write(opCtx, payload)
	cancel()
	if err != nil {
		return "", errors.NewWriteFailedError("failed to write properties", err)
	}

	select {
	case <-time.After(s.transport.settleDelay):
	case <-ctx.Done():
		return "", errors.NewConnectionFailedError("cancelled while waiting for acknowledgement", ctx.Err())
	}

	opCtx, cancel = s.opContext(ctx)
	defer cancel()
	ack, err := c.Read(opCtx)
	if err != nil {
		return "", errors.NewConnectionFailedError("failed to read acknowledgement", err)
	}

	nuts.L.Infof("[Provisioning] Properties updated on %s: %s", s.adv.ID, string(ack))
	return string(ack), nil
}

// Disconnect tears down the GATT session. Idempotent: disconnecting an
// already-closed session is a no-op.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.info = nil
	s.mu.Unlock()

	if err := s.conn.Close(); err != nil {
		nuts.L.Warnf("[Provisioning] Error closing connection to %s: %v", s.adv.ID, err)
	}
	s.transport.release(s)
	nuts.L.Infof("[Provisioning] Disconnected from %s", s.adv.ID)
}
