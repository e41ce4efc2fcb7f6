// FilePath: api/api.router_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aquasense/hub/internal/models"
	"github.com/aquasense/hub/internal/registry"
	"github.com/aquasense/hub/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()
	svc := registry.New(memory.NewDeviceRepository(), memory.NewSensorDataRepository(), nil)
	router := NewRouter(svc, []string{"*"})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, svc
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func registerViaAPI(t *testing.T, ts *httptest.Server, name, deviceType, mac string) *models.Device {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/devices/register", models.ProvisioningRequest{
		DeviceName: name,
		DeviceType: deviceType,
		MacAddress: mac,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ProvisioningResponse
	decodeBody(t, resp, &body)
	require.True(t, body.Success)
	require.NotNil(t, body.Device)
	return body.Device
}

func TestDeviceEndpoints(t *testing.T) {
	t.Run("register and fetch", func(t *testing.T) {
		ts, _ := newTestServer(t)

		device := registerViaAPI(t, ts, "Tank Sensor 1", string(models.DeviceTypeSensorNode), "")
		assert.Equal(t, models.StatusProvisioning, device.Status)

		resp := doJSON(t, http.MethodGet, ts.URL+"/api/devices/"+device.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Device
		decodeBody(t, resp, &got)
		assert.Equal(t, device.ID, got.ID)
		assert.Equal(t, "Tank Sensor 1", got.Name)
	})

	t.Run("unknown device is a 404 with a message", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := doJSON(t, http.MethodGet, ts.URL+"/api/devices/nope", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "Device not found", body["message"])
	})

	t.Run("register without a name fails", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := doJSON(t, http.MethodPost, ts.URL+"/api/devices/register", models.ProvisioningRequest{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body models.ProvisioningResponse
		decodeBody(t, resp, &body)
		assert.False(t, body.Success)
	})

	t.Run("status update round trip", func(t *testing.T) {
		ts, _ := newTestServer(t)
		device := registerViaAPI(t, ts, "Tank Sensor 1", string(models.DeviceTypeSensorNode), "")

		resp := doJSON(t, http.MethodPut, ts.URL+"/api/devices/"+device.ID+"/status", models.StatusOnline)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "Device status updated", body["message"])
	})

	t.Run("delete", func(t *testing.T) {
		ts, _ := newTestServer(t)
		device := registerViaAPI(t, ts, "Tank Sensor 1", string(models.DeviceTypeSensorNode), "")

		resp := doJSON(t, http.MethodDelete, ts.URL+"/api/devices/"+device.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "Device deleted successfully", body["message"])

		resp = doJSON(t, http.MethodGet, ts.URL+"/api/devices/"+device.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestAssignSensorEndpoint(t *testing.T) {
	t.Run("success returns the node MAC", func(t *testing.T) {
		ts, _ := newTestServer(t)
		sensor := registerViaAPI(t, ts, "Sensor A", string(models.DeviceTypeSensorNode), "")
		node := registerViaAPI(t, ts, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

		resp := doJSON(t, http.MethodPost, ts.URL+"/api/devices/assign-sensor", models.AssignSensorRequest{
			SensorID:    sensor.ID,
			CloudNodeID: node.ID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body models.AssignSensorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", body.CloudNodeMacAddress)
	})

	t.Run("any failure is a 400 with a message", func(t *testing.T) {
		ts, _ := newTestServer(t)
		sensor := registerViaAPI(t, ts, "Sensor A", string(models.DeviceTypeSensorNode), "")

		resp := doJSON(t, http.MethodPost, ts.URL+"/api/devices/assign-sensor", models.AssignSensorRequest{
			SensorID:    sensor.ID,
			CloudNodeID: "nope",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "Cloud node not found", body["message"])
	})
}

func TestCloudNodeEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	sensor := registerViaAPI(t, ts, "Sensor A", string(models.DeviceTypeSensorNode), "")
	node := registerViaAPI(t, ts, "Node A", string(models.DeviceTypeCloudNode), "AA:BB:CC:DD:EE:FF")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/devices/assign-sensor", models.AssignSensorRequest{
		SensorID:    sensor.ID,
		CloudNodeID: node.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("list cloud nodes", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/devices/cloud-nodes", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var nodes []*models.Device
		decodeBody(t, resp, &nodes)
		require.Len(t, nodes, 1)
		assert.Equal(t, node.ID, nodes[0].ID)
	})

	t.Run("list assigned sensors", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/devices/cloud-nodes/"+node.ID+"/sensors", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var sensors []*models.Device
		decodeBody(t, resp, &sensors)
		require.Len(t, sensors, 1)
		assert.Equal(t, sensor.ID, sensors[0].ID)
	})
}

func TestSensorDataEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	device := registerViaAPI(t, ts, "Tank Sensor 1", string(models.DeviceTypeSensorNode), "")

	for i := 0; i < 3; i++ {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/sensordata", models.SensorDataRequest{
			DeviceID: device.ID,
			Data:     models.JSON{"seq": i},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body models.SensorDataResponse
		decodeBody(t, resp, &body)
		require.True(t, body.Success)
	}

	t.Run("list all", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/sensordata", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var readings []*models.SensorData
		decodeBody(t, resp, &readings)
		assert.Len(t, readings, 3)
	})

	t.Run("per-device with limit", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/sensordata/device/"+device.ID+"?limit=2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var readings []*models.SensorData
		decodeBody(t, resp, &readings)
		assert.Len(t, readings, 2)
	})

	t.Run("range requires both bounds", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/sensordata/range?start=2025-01-01T00:00:00Z", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("range returns readings in the window", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet,
			ts.URL+"/api/sensordata/range?start=2025-01-01T00:00:00Z&end=2030-01-01T00:00:00Z", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var readings []*models.SensorData
		decodeBody(t, resp, &readings)
		assert.Len(t, readings, 3)
	})
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
