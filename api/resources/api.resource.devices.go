// FilePath: api/resources/api.resource.devices.go
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

// DeviceHandlers encapsulates the device-related HTTP handlers
type DeviceHandlers struct {
	registry *registry.Registry
}

// @Summary List devices
// @Description Get all registered devices
// @Tags devices
// @Produce json
// @Success 200 {array} models.Device
// @Router /devices [get]
func (h *DeviceHandlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	devices, err := h.registry.ListDevices(r.Context())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list devices", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary Get a device by ID
// @Description Get detailed information about a specific device
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} models.Device
// @Failure 404 {object} map[string]string
// @Router /devices/{id} [get]
func (h *DeviceHandlers) GetDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	device, err := h.registry.GetDevice(r.Context(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithMessage(w, http.StatusNotFound, "Device not found")
			return
		}
		respondWithError(w, errors.NewInternalError("failed to get device", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// @Summary Register a new device
// @Description Register a device discovered during provisioning
// @Tags devices
// @Accept json
// @Produce json
// @Param request body models.ProvisioningRequest true "Registration details"
// @Success 200 {object} models.ProvisioningResponse
// @Failure 400 {object} models.ProvisioningResponse
// @Router /devices/register [post]
func (h *DeviceHandlers) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req models.ProvisioningRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, models.ProvisioningResponse{
			Success: false,
			Message: "Failed to register device: invalid request body",
		})
		return
	}

	nuts.L.Infof("[API] Registering device: %s", req.DeviceName)
	device, err := h.registry.RegisterDevice(r.Context(), &req)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, models.ProvisioningResponse{
			Success: false,
			Message: "Failed to register device: " + err.Error(),
		})
		return
	}

	respondWithJSON(w, http.StatusOK, models.ProvisioningResponse{
		Success: true,
		Message: "Device registered successfully",
		Device:  device,
	})
}

// @Summary Update device status
// @Description Set the status of a device
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param status body string true "New status"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /devices/{id}/status [put]
func (h *DeviceHandlers) UpdateDeviceStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var status models.DeviceStatus
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	err := h.registry.UpdateDeviceStatus(r.Context(), id, status)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithMessage(w, http.StatusNotFound, "Device not found")
			return
		}
		if errors.IsValidation(err) {
			respondWithError(w, err.(*errors.APIError).WithRequestID(requestID))
			return
		}
		respondWithError(w, errors.NewInternalError("failed to update device status", err).WithRequestID(requestID))
		return
	}

	respondWithMessage(w, http.StatusOK, "Device status updated")
}

// @Summary Update device metadata
// @Description Merge the given key/value pairs into the device metadata
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param metadata body map[string]string true "Metadata entries"
// @Success 200 {object} models.Device
// @Failure 404 {object} map[string]string
// @Router /devices/{id}/metadata [put]
func (h *DeviceHandlers) UpdateDeviceMetadata(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var metadata map[string]string
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	device, err := h.registry.UpdateDeviceMetadata(r.Context(), id, metadata)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithMessage(w, http.StatusNotFound, "Device not found")
			return
		}
		respondWithError(w, errors.NewInternalError("failed to update device metadata", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// @Summary Update device type
// @Description Change the role of a device, keeping the assignment graph consistent
// @Tags devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param request body models.UpdateDeviceTypeRequest true "New device type"
// @Success 200 {object} models.Device
// @Failure 404 {object} map[string]string
// @Router /devices/{id}/type [put]
func (h *DeviceHandlers) UpdateDeviceType(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var req models.UpdateDeviceTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	device, err := h.registry.UpdateDeviceType(r.Context(), id, req.DeviceType)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithMessage(w, http.StatusNotFound, "Device not found")
			return
		}
		respondWithError(w, errors.NewInternalError("failed to update device type", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, device)
}

// @Summary Assign a sensor to a cloud node
// @Description Link a sensor node to a cloud node and return the node MAC for write-back
// @Tags devices
// @Accept json
// @Produce json
// @Param request body models.AssignSensorRequest true "Assignment"
// @Success 200 {object} models.AssignSensorResponse
// @Failure 400 {object} map[string]string
// @Router /devices/assign-sensor [post]
func (h *DeviceHandlers) AssignSensor(w http.ResponseWriter, r *http.Request) {
	var req models.AssignSensorRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithMessage(w, http.StatusBadRequest, "Failed to assign sensor: invalid request body")
		return
	}

	nuts.L.Infof("[API] Assigning sensor %s to cloud node %s", req.SensorID, req.CloudNodeID)
	mac, err := h.registry.AssignSensorToCloudNode(r.Context(), req.SensorID, req.CloudNodeID)
	if err != nil {
		// Assignment failures surface as 400 with a message, regardless of
		// cause; that is the contract the frontend relies on.
		if apiErr, ok := err.(*errors.APIError); ok {
			respondWithMessage(w, http.StatusBadRequest, apiErr.Message)
			return
		}
		respondWithMessage(w, http.StatusBadRequest, "Failed to assign sensor")
		return
	}

	respondWithJSON(w, http.StatusOK, models.AssignSensorResponse{
		Message:             "Sensor assigned to cloud node successfully",
		CloudNodeMacAddress: mac,
	})
}

// @Summary List cloud nodes
// @Description Get all devices of type CloudNode
// @Tags devices
// @Produce json
// @Success 200 {array} models.Device
// @Router /devices/cloud-nodes [get]
func (h *DeviceHandlers) ListCloudNodes(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	devices, err := h.registry.ListCloudNodes(r.Context())
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list cloud nodes", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, devices)
}

// @Summary List sensors of a cloud node
// @Description Get all sensor nodes assigned to a cloud node
// @Tags devices
// @Produce json
// @Param cloudNodeId path string true "Cloud node ID"
// @Success 200 {array} models.Device
// @Router /devices/cloud-nodes/{cloudNodeId}/sensors [get]
func (h *DeviceHandlers) ListSensorsForCloudNode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cloudNodeID := vars["cloudNodeId"]
	requestID := nuts.NID("req", 12)

	sensors, err := h.registry.SensorsForCloudNode(r.Context(), cloudNodeID)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list sensors", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, sensors)
}

// @Summary Delete a device
// @Description Delete a device, its telemetry and its assignment-graph edges
// @Tags devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /devices/{id} [delete]
func (h *DeviceHandlers) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	err := h.registry.DeleteDevice(r.Context(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			respondWithMessage(w, http.StatusNotFound, "Device not found")
			return
		}
		respondWithError(w, errors.NewInternalError("failed to delete device", err).WithRequestID(requestID))
		return
	}

	respondWithMessage(w, http.StatusOK, "Device deleted successfully")
}
