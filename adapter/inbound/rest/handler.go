package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/inbound"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

// Handler serves the auto-sync control API
type Handler struct {
	autoSync inbound.AutoSyncService
	folders  inbound.FolderService
	stats    inbound.SyncStatsService
	logger   outbound.Logger
}

func NewHandler(
	autoSync inbound.AutoSyncService,
	folders inbound.FolderService,
	stats inbound.SyncStatsService,
	logger outbound.Logger,
) *Handler {
	return &Handler{
		autoSync: autoSync,
		folders:  folders,
		stats:    stats,
		logger:   logger,
	}
}

type StartAutoBackupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Start   bool   `json:"start"`
}

type AutoBackupStatusResponse struct {
	Enabled  bool   `json:"enabled"`
	Watching bool   `json:"watching"`
	Target   string `json:"target,omitempty"`
}

type CreateFolderRequest struct {
	Name string `json:"name"`
}

// SetupRoutes registers the control routes
func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/start-auto-backup", h.StartAutoBackup).Methods("POST", "OPTIONS")
	router.HandleFunc("/auto-backup/status", h.AutoBackupStatus).Methods("GET", "OPTIONS")
	router.HandleFunc("/check-folder-exists", h.CheckFolderExists).Methods("GET", "OPTIONS")
	router.HandleFunc("/create-autoSync-folder", h.CreateFolder).Methods("POST", "OPTIONS")

	if h.stats != nil {
		router.HandleFunc("/api/stats", h.GetStats).Methods("GET", "OPTIONS")
	}

	router.HandleFunc("/health", h.healthCheck).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartAutoBackup flips the upload gate and starts the watcher on first use
func (h *Handler) StartAutoBackup(w http.ResponseWriter, r *http.Request) {
	desired, err := decodeStatus(r)
	if err != nil {
		h.logger.Warn("Rejected auto backup request", "error", err)
		writeJSON(w, http.StatusBadRequest, StartAutoBackupResponse{
			Success: false,
			Message: "Invalid status value. Expected a boolean.",
			Start:   h.autoSync.IsEnabled(),
		})
		return
	}

	enabled, err := h.autoSync.StartWatch(r.Context(), desired)
	if err != nil {
		h.logger.Error("Failed to start directory watcher", "error", err)

		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrWatchTargetMissing) || errors.Is(err, model.ErrWatchTargetNotDir) {
			status = http.StatusConflict
		}
		writeJSON(w, status, StartAutoBackupResponse{
			Success: false,
			Message: err.Error(),
			Start:   enabled,
		})
		return
	}

	message := "Auto backup stopped..."
	if enabled {
		message = "Auto backup started..."
	}

	writeJSON(w, http.StatusOK, StartAutoBackupResponse{
		Success: true,
		Message: message,
		Start:   enabled,
	})
}

func (h *Handler) AutoBackupStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AutoBackupStatusResponse{
		Enabled:  h.autoSync.IsEnabled(),
		Watching: h.autoSync.IsWatching(),
		Target:   h.autoSync.Target().Path,
	})
}

func (h *Handler) CheckFolderExists(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	exists, err := h.folders.Exists(r.Context(), name)
	if err != nil {
		h.writeFolderError(w, err, "Error checking folder existence")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode create folder request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	if _, err := h.folders.Create(r.Context(), req.Name); err != nil {
		h.writeFolderError(w, err, "Error creating folder")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Folder created successfully"})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.GetStats(r.Context()))
}

func (h *Handler) writeFolderError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, model.ErrFolderNameRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Folder name is required"})
	case errors.Is(err, model.ErrInvalidFolderName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid folder name"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": message,
			"error":   err.Error(),
		})
	}
}

// decodeStatus accepts only a JSON boolean under "status"
func decodeStatus(r *http.Request) (bool, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return false, errors.Join(model.ErrInvalidArgument, err)
	}

	raw, ok := body["status"]
	if !ok {
		return false, errors.Join(model.ErrInvalidArgument, errors.New("missing status"))
	}

	var status bool
	if string(raw) == "null" {
		return false, errors.Join(model.ErrInvalidArgument, errors.New("status is null"))
	}
	if err := json.Unmarshal(raw, &status); err != nil {
		return false, errors.Join(model.ErrInvalidArgument, err)
	}

	return status, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
