// FilePath: cmd/provision/main.go

// provision is the operator-side counterpart of the hub: it drives the BLE
// configuration exchange with a nearby peripheral and can register the
// result against a running hub instance.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aquasense/hub/internal/config"
	"github.com/aquasense/hub/internal/models"
	"github.com/aquasense/hub/internal/provisioning"
	"github.com/aquasense/hub/internal/provisioning/ble"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	var (
		namePrefix = flag.String("name-prefix", "", "only consider peripherals whose advertised name starts with this prefix")
		ssid       = flag.String("ssid", "", "WiFi SSID to write to the peripheral")
		password   = flag.String("password", "", "WiFi password to write to the peripheral")
		properties = flag.String("properties", "", "JSON object of properties to write to the peripheral")
		hubURL     = flag.String("hub", "", "hub base URL; when set, the peripheral is registered there")
		deviceName = flag.String("device-name", "", "device name used for hub registration")
	)
	flag.Parse()

	nuts.InitVersion()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	transport := provisioning.New(ble.NewAdapter(*namePrefix),
		provisioning.WithScanTimeout(cfg.Provisioning.ScanTimeout),
		provisioning.WithOpTimeout(cfg.Provisioning.OpTimeout),
		provisioning.WithSettleDelay(cfg.Provisioning.SettleDelay),
	)

	ctx := context.Background()

	adv, err := transport.Scan(ctx)
	if err != nil {
		nuts.L.Errorf("[Provision] Scan failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("Found peripheral: %s (%s)\n", adv.Name, adv.ID)

	sess, err := transport.Connect(ctx, adv)
	if err != nil {
		nuts.L.Errorf("[Provision] Connect failed: %v", err)
		os.Exit(1)
	}
	defer sess.Disconnect()

	// The peripheral needs a moment after connect before the first read
	// succeeds reliably.
	time.Sleep(cfg.Provisioning.SettleDelay)

	info, err := sess.ReadDeviceInfo(ctx)
	if err != nil {
		nuts.L.Errorf("[Provision] Failed to read device info: %v", err)
		os.Exit(1)
	}
	fmt.Printf("Device: mac=%s type=%s\n", info.MacAddress, info.DeviceType)
	for _, p := range provisioning.ParseProperties(info) {
		if p.Unit != "" {
			fmt.Printf("  %s: %v %s\n", p.Label, p.Value, p.Unit)
		} else {
			fmt.Printf("  %s: %v\n", p.Label, p.Value)
		}
	}

	status, err := sess.ReadStatus(ctx)
	if err != nil {
		nuts.L.Warnf("[Provision] Failed to read status: %v", err)
	} else {
		fmt.Printf("Status: %s\n", status)
	}

	if *ssid != "" {
		if err := sess.WriteWifiCredentials(ctx, *ssid, *password); err != nil {
			nuts.L.Errorf("[Provision] Failed to write WiFi credentials: %v", err)
			os.Exit(1)
		}
		fmt.Println("WiFi credentials written")
	}

	if *properties != "" {
		var props models.JSON
		if err := json.Unmarshal([]byte(*properties), &props); err != nil {
			nuts.L.Errorf("[Provision] Invalid -properties JSON: %v", err)
			os.Exit(1)
		}
		ack, err := sess.UpdateProperties(ctx, props)
		if err != nil {
			nuts.L.Errorf("[Provision] Failed to update properties: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Properties updated, peripheral says: %s\n", ack)
	}

	if *hubURL != "" {
		name := *deviceName
		if name == "" {
			name = adv.Name
		}
		device, err := registerWithHub(ctx, *hubURL, &models.ProvisioningRequest{
			DeviceName:  name,
			BluetoothID: adv.ID,
			DeviceType:  info.DeviceType,
			MacAddress:  info.MacAddress,
		})
		if err != nil {
			nuts.L.Errorf("[Provision] Hub registration failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Registered with hub as %s\n", device.ID)
	}
}

func registerWithHub(ctx context.Context, hubURL string, req *models.ProvisioningRequest) (*models.Device, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		hubURL+"/api/devices/register", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body models.ProvisioningResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("hub rejected registration: %s", body.Message)
	}
	return body.Device, nil
}
