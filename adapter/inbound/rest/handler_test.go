package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/GoAutoSync/domain/model"
)

type MockAutoSyncService struct {
	mock.Mock
}

func (m *MockAutoSyncService) StartWatch(ctx context.Context, enabled bool) (bool, error) {
	args := m.Called(enabled)
	return args.Bool(0), args.Error(1)
}

func (m *MockAutoSyncService) IsEnabled() bool {
	return m.Called().Bool(0)
}

func (m *MockAutoSyncService) IsWatching() bool {
	return m.Called().Bool(0)
}

func (m *MockAutoSyncService) Target() model.WatchTarget {
	return m.Called().Get(0).(model.WatchTarget)
}

type MockFolderService struct {
	mock.Mock
}

func (m *MockFolderService) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(name)
	return args.Bool(0), args.Error(1)
}

func (m *MockFolderService) Create(ctx context.Context, name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetStats(ctx context.Context) model.SyncStats {
	return m.Called().Get(0).(model.SyncStats)
}

func (m *MockStatsService) Subscribe(fn func(model.UploadOutcome)) func() {
	return func() {}
}

type mockLogger struct{}

func (mockLogger) Error(msg string, args ...any) {}
func (mockLogger) Warn(msg string, args ...any)  {}
func (mockLogger) Info(msg string, args ...any)  {}
func (mockLogger) Debug(msg string, args ...any) {}

func setupHandler() (*Handler, *MockAutoSyncService, *MockFolderService, *MockStatsService) {
	autoSync := &MockAutoSyncService{}
	folders := &MockFolderService{}
	stats := &MockStatsService{}
	return NewHandler(autoSync, folders, stats, mockLogger{}), autoSync, folders, stats
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestStartAutoBackup_Start(t *testing.T) {
	handler, autoSync, _, _ := setupHandler()
	autoSync.On("StartWatch", true).Return(true, nil).Once()

	w := postJSON(t, handler.StartAutoBackup, "/start-auto-backup", `{"status": true}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp StartAutoBackupResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StartAutoBackupResponse{Success: true, Message: "Auto backup started...", Start: true}, resp)
	autoSync.AssertExpectations(t)
}

func TestStartAutoBackup_Stop(t *testing.T) {
	handler, autoSync, _, _ := setupHandler()
	autoSync.On("StartWatch", false).Return(false, nil).Once()

	w := postJSON(t, handler.StartAutoBackup, "/start-auto-backup", `{"status": false}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp StartAutoBackupResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Auto backup stopped...", resp.Message)
	assert.False(t, resp.Start)
}

func TestStartAutoBackup_InvalidStatus(t *testing.T) {
	bodies := []string{
		`{"status": "true"}`,
		`{"status": 1}`,
		`{"status": null}`,
		`{}`,
		`not-json`,
		`[true]`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			handler, autoSync, _, _ := setupHandler()
			autoSync.On("IsEnabled").Return(false)

			w := postJSON(t, handler.StartAutoBackup, "/start-auto-backup", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp StartAutoBackupResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.Equal(t, "Invalid status value. Expected a boolean.", resp.Message)
			autoSync.AssertNotCalled(t, "StartWatch", mock.Anything)
		})
	}
}

func TestStartAutoBackup_StartupFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"missing folder", model.ErrWatchTargetMissing, http.StatusConflict},
		{"not a directory", model.ErrWatchTargetNotDir, http.StatusConflict},
		{"environment", model.ErrEnvironmentUnavailable, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, autoSync, _, _ := setupHandler()
			autoSync.On("StartWatch", true).Return(true, tt.err)

			w := postJSON(t, handler.StartAutoBackup, "/start-auto-backup", `{"status": true}`)

			assert.Equal(t, tt.status, w.Code)
			var resp StartAutoBackupResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.True(t, resp.Start)
		})
	}
}

func TestAutoBackupStatus(t *testing.T) {
	handler, autoSync, _, _ := setupHandler()
	autoSync.On("IsEnabled").Return(true)
	autoSync.On("IsWatching").Return(true)
	autoSync.On("Target").Return(model.WatchTarget{Path: "/home/alice/Desktop/autoSync"})

	req := httptest.NewRequest("GET", "/auto-backup/status", nil)
	w := httptest.NewRecorder()
	handler.AutoBackupStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp AutoBackupStatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, AutoBackupStatusResponse{Enabled: true, Watching: true, Target: "/home/alice/Desktop/autoSync"}, resp)
}

func TestCheckFolderExists(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		exists     bool
		err        error
		wantStatus int
		wantBody   string
	}{
		{"exists", "autoSync", true, nil, http.StatusOK, `{"exists":true}`},
		{"absent", "other", false, nil, http.StatusOK, `{"exists":false}`},
		{"missing name", "", false, model.ErrFolderNameRequired, http.StatusBadRequest, `{"message":"Folder name is required"}`},
		{"stat error", "locked", false, errors.New("permission denied"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, folders, _ := setupHandler()
			folders.On("Exists", tt.query).Return(tt.exists, tt.err)

			req := httptest.NewRequest("GET", "/check-folder-exists?name="+tt.query, nil)
			w := httptest.NewRecorder()
			handler.CheckFolderExists(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestCreateFolder(t *testing.T) {
	handler, _, folders, _ := setupHandler()
	folders.On("Create", "autoSync").Return("/home/alice/Desktop/autoSync", nil)

	w := postJSON(t, handler.CreateFolder, "/create-autoSync-folder", `{"name":"autoSync"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Folder created successfully"}`, w.Body.String())
}

func TestCreateFolder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"missing name", `{}`, model.ErrFolderNameRequired, http.StatusBadRequest},
		{"traversal", `{"name":"../etc"}`, model.ErrInvalidFolderName, http.StatusBadRequest},
		{"mkdir failure", `{"name":"x"}`, errors.New("read-only"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, folders, _ := setupHandler()
			folders.On("Create", mock.Anything).Return("", tt.err)

			w := postJSON(t, handler.CreateFolder, "/create-autoSync-folder", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		handler, _, folders, _ := setupHandler()
		w := postJSON(t, handler.CreateFolder, "/create-autoSync-folder", "invalid-json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		folders.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestGetStats(t *testing.T) {
	handler, _, _, stats := setupHandler()
	stats.On("GetStats").Return(model.SyncStats{Detected: 3, Uploaded: 2, Failed: 1})

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp model.SyncStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Uploaded)
	assert.Equal(t, 1, resp.Failed)
}

func TestRouter_CORSAndRoutes(t *testing.T) {
	handler, autoSync, _, _ := setupHandler()
	autoSync.On("StartWatch", true).Return(true, nil)

	router := mux.NewRouter()
	router.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	handler.SetupRoutes(router)

	// preflight
	req := httptest.NewRequest("OPTIONS", "/start-auto-backup", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	// actual request through the router
	req = httptest.NewRequest("POST", "/start-auto-backup", bytes.NewBufferString(`{"status":true}`))
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	// unknown origin gets no CORS headers
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := CORSMiddleware([]string{"*"})(next)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
