package ipc

import (
	"time"

	"hopper/internal/apps"
	"hopper/internal/history"
)

// ServiceName is the RPC service prefix.
const ServiceName = "Hopper"

// RequestMeta is embedded in every request.
type RequestMeta struct {
	RequestID string `json:"request_id"`
}

// QueryRequest ranks applications. An empty Search lists every application
// by stored score.
type QueryRequest struct {
	RequestMeta
	Search string `json:"search"`
	Limit  int    `json:"limit"`
}

// QueryResponse carries ranked applications.
type QueryResponse struct {
	Apps []apps.App `json:"apps"`
}

// LaunchRequest starts the application with ID.
type LaunchRequest struct {
	RequestMeta
	ID string `json:"id"`
}

// LaunchResponse reports the started application.
type LaunchResponse struct {
	App apps.App `json:"app"`
	PID int      `json:"pid"`
}

// RescanRequest rescans the application directories.
type RescanRequest struct {
	RequestMeta
}

// RescanResponse reports the registry size after the rescan and any
// non-fatal scan errors.
type RescanResponse struct {
	Apps   int      `json:"apps"`
	Errors []string `json:"errors"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct {
	RequestMeta
}

// StatusResponse represents daemon and registry status.
type StatusResponse struct {
	Running       bool      `json:"running"`
	PID           int       `json:"pid"`
	StartedAt     time.Time `json:"started_at"`
	ConfigPath    string    `json:"config_path"`
	DBPath        string    `json:"db_path"`
	HistoryPath   string    `json:"history_path"`
	LockPath      string    `json:"lock_path"`
	AppDirs       []string  `json:"app_dirs"`
	Watched       []string  `json:"watched"`
	AppCount      int       `json:"app_count"`
	HalfLife      float64   `json:"half_life"`
	ReferenceTime float64   `json:"reference_time"`
	LastRescan    time.Time `json:"last_rescan"`
	ScanErrors    int       `json:"scan_errors"`
	LastError     string    `json:"last_error"`
}

// HistoryRequest fetches recent launches.
type HistoryRequest struct {
	RequestMeta
	Limit int `json:"limit"`
}

// HistoryResponse carries recent launches and per-app totals.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Counts  []history.Count `json:"counts"`
}

// StopRequest asks the daemon process to exit.
type StopRequest struct {
	RequestMeta
}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
