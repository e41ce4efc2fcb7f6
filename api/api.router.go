// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/aquasense/hub/api/middleware"
	"github.com/aquasense/hub/api/resources"
	"github.com/aquasense/hub/internal/registry"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	cors      func(http.Handler) http.Handler
	logger    *middleware.RequestLogger
	resources *resources.Resources
}

func NewRouter(svc *registry.Registry, allowedOrigins []string) *Router {
	r := &Router{
		router: mux.NewRouter(),
		cors: handlers.CORS(
			handlers.AllowedOrigins(allowedOrigins),
			handlers.AllowedMethods([]string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		),
		logger:    middleware.NewRequestLogger(),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

// SetHealthCheck installs the health handler served at /api/health.
func (r *Router) SetHealthCheck(h func(w http.ResponseWriter, req *http.Request)) {
	r.resources.SetHealthCheck(h)
}

func (r *Router) setupRoutes() {
	// API prefix
	api := r.router.PathPrefix("/api").Subrouter()
	api.Use(r.logger.Log)

	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if r.resources.HealthCheck == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		r.resources.HealthCheck(w, req)
	}).Methods(http.MethodGet)

	// Devices. The literal subpaths register before /{id} so mux does not
	// swallow them as IDs.
	devices := api.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	devices.HandleFunc("/register", r.resources.Devices.RegisterDevice).Methods(http.MethodPost)
	devices.HandleFunc("/assign-sensor", r.resources.Devices.AssignSensor).Methods(http.MethodPost)
	devices.HandleFunc("/cloud-nodes", r.resources.Devices.ListCloudNodes).Methods(http.MethodGet)
	devices.HandleFunc("/cloud-nodes/{cloudNodeId}/sensors", r.resources.Devices.ListSensorsForCloudNode).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", r.resources.Devices.GetDevice).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", r.resources.Devices.DeleteDevice).Methods(http.MethodDelete)
	devices.HandleFunc("/{id}/status", r.resources.Devices.UpdateDeviceStatus).Methods(http.MethodPut)
	devices.HandleFunc("/{id}/metadata", r.resources.Devices.UpdateDeviceMetadata).Methods(http.MethodPut)
	devices.HandleFunc("/{id}/type", r.resources.Devices.UpdateDeviceType).Methods(http.MethodPut)

	// Sensor data
	sensordata := api.PathPrefix("/sensordata").Subrouter()
	sensordata.HandleFunc("", r.resources.SensorData.SaveSensorData).Methods(http.MethodPost)
	sensordata.HandleFunc("", r.resources.SensorData.ListSensorData).Methods(http.MethodGet)
	sensordata.HandleFunc("/range", r.resources.SensorData.ListSensorDataInRange).Methods(http.MethodGet)
	sensordata.HandleFunc("/device/{id}", r.resources.SensorData.ListSensorDataForDevice).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.cors(r.router).ServeHTTP(w, req)
}
