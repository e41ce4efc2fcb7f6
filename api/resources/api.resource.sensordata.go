// FilePath: api/resources/api.resource.sensordata.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/aquasense/hub/internal/errors"
	"github.com/aquasense/hub/internal/models"
	"github.com/aquasense/hub/internal/registry"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// SensorDataHandlers encapsulates the telemetry HTTP handlers
type SensorDataHandlers struct {
	registry *registry.Registry
}

// @Summary Ingest a sensor reading
// @Description Store a telemetry payload reported by a device
// @Tags sensordata
// @Accept json
// @Produce json
// @Param request body models.SensorDataRequest true "Reading"
// @Success 200 {object} models.SensorDataResponse
// @Failure 400 {object} models.SensorDataResponse
// @Router /sensordata [post]
func (h *SensorDataHandlers) SaveSensorData(w http.ResponseWriter, r *http.Request) {
	var req models.SensorDataRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, models.SensorDataResponse{
			Success: false,
			Message: "Failed to save sensor data: invalid request body",
		})
		return
	}

	reading, err := h.registry.SaveSensorData(r.Context(), &req)
	if err != nil {
		nuts.L.Errorf("[API] Failed to save sensor data for device %s: %v", req.DeviceID, err)
		respondWithJSON(w, http.StatusBadRequest, models.SensorDataResponse{
			Success: false,
			Message: "Failed to save sensor data: " + err.Error(),
		})
		return
	}

	respondWithJSON(w, http.StatusOK, models.SensorDataResponse{
		Success: true,
		Message: "Sensor data saved successfully",
		Data:    reading,
	})
}

// @Summary List sensor readings
// @Description Get all stored telemetry, newest first
// @Tags sensordata
// @Produce json
// @Success 200 {array} models.SensorData
// @Router /sensordata [get]
func (h *SensorDataHandlers) ListSensorData(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	readings, err := h.registry.ListSensorData(r.Context())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list sensor data", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary List sensor readings for a device
// @Description Get telemetry for one device, newest first, optionally limited
// @Tags sensordata
// @Produce json
// @Param id path string true "Device ID"
// @Param limit query int false "Maximum number of readings"
// @Success 200 {array} models.SensorData
// @Router /sensordata/device/{id} [get]
func (h *SensorDataHandlers) ListSensorDataForDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["id"]
	requestID := nuts.NID("req", 12)

	var filters models.SensorDataFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	readings, err := h.registry.SensorDataForDevice(r.Context(), deviceID, filters.Limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list sensor data", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary List sensor readings in a time range
// @Description Get telemetry received between start and end (RFC3339), newest first
// @Tags sensordata
// @Produce json
// @Param start query string true "Range start (RFC3339)"
// @Param end query string true "Range end (RFC3339)"
// @Success 200 {array} models.SensorData
// @Failure 400 {object} errors.APIError
// @Router /sensordata/range [get]
func (h *SensorDataHandlers) ListSensorDataInRange(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.SensorDataFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	if filters.Start.IsZero() || filters.End.IsZero() {
		respondWithError(w, errors.NewValidationError("start and end are required", nil).WithRequestID(requestID))
		return
	}

	readings, err := h.registry.SensorDataInRange(r.Context(), filters.Start, filters.End)
	if err != nil {
		if errors.IsValidation(err) {
			respondWithError(w, err.(*errors.APIError).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to list sensor data", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}
