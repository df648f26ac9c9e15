package server

import (
	"encoding/json"
	"net/http"
)

// healthResponse is the JSON shape returned by the health endpoint.
type healthResponse struct {
	Status     string `json:"status"`
	DB         string `json:"db"`
	Migrations int    `json:"migrations_applied"`
	Entities   int    `json:"entities"`
	Snapshots  int    `json:"snapshots_cached"`
	TenantDir  string `json:"tenant_dir"`
	Tenants    int    `json:"tenants"`
}

// handleHealth reports whether the server and database are operational.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		DB:        "connected",
		Entities:  len(s.catalog.Entities),
		Snapshots: s.snapshots.Len(),
		TenantDir: s.tenants.Dir(),
	}
	status := http.StatusOK

	if err := s.db.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.DB = "error: " + err.Error()
		status = http.StatusServiceUnavailable
	}

	if count, err := s.db.MigrationCount(); err == nil {
		resp.Migrations = count
	}

	if names, err := s.tenants.List(); err == nil {
		resp.Tenants = len(names)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
