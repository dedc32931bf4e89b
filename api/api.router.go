// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/gearlog/wican-hub/api/middleware"
	"github.com/gearlog/wican-hub/api/resources"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.TokenMiddleware
	resources *resources.Resources
}

func NewRouter(svc *hubservice.HubService, globalToken string) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewTokenMiddleware(globalToken),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

// Resources exposes the handler set so the server can attach the
// health check after wiring.
func (r *Router) Resources() *resources.Resources {
	return r.resources
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes. The ingest endpoint validates device or global
	// tokens itself since device tokens never unlock the read surface.
	api.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if r.resources.HealthCheck != nil {
			r.resources.HealthCheck(w, req)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	api.HandleFunc("/ingest", r.resources.Ingest.Ingest).Methods(http.MethodPost)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Devices
	devices := protected.PathPrefix("/devices").Subrouter()
	devices.HandleFunc("", r.resources.Devices.ListDevices).Methods(http.MethodGet)
	devices.HandleFunc("/{id}", r.resources.Devices.GetDevice).Methods(http.MethodGet)
	devices.HandleFunc("/{id}/link", r.resources.Devices.LinkDevice).Methods(http.MethodPost)
	devices.HandleFunc("/{id}/link", r.resources.Devices.UnlinkDevice).Methods(http.MethodDelete)

	// Vehicles
	vehicles := protected.PathPrefix("/vehicles").Subrouter()
	vehicles.HandleFunc("/{vin}/sessions", r.resources.Sessions.ListSessions).Methods(http.MethodGet)
	vehicles.HandleFunc("/{vin}/telemetry", r.resources.Telemetry.ListReadings).Methods(http.MethodGet)
	vehicles.HandleFunc("/{vin}/telemetry/summary", r.resources.Telemetry.ListSummaries).Methods(http.MethodGet)
	vehicles.HandleFunc("/{vin}/dtcs", r.resources.DTCs.ListVehicleDTCs).Methods(http.MethodGet)

	// Trouble codes
	protected.HandleFunc("/dtcs/{id}/clear", r.resources.DTCs.ClearDTC).Methods(http.MethodPost)
	protected.HandleFunc("/dtc-definitions", r.resources.DTCs.SearchDefinitions).Methods(http.MethodGet)
	protected.HandleFunc("/dtc-definitions/{code}", r.resources.DTCs.LookupDefinition).Methods(http.MethodGet)

	// Firmware
	firmware := protected.PathPrefix("/firmware").Subrouter()
	firmware.HandleFunc("/latest", r.resources.Firmware.GetLatest).Methods(http.MethodGet)
	firmware.HandleFunc("/outdated", r.resources.Firmware.ListOutdated).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
