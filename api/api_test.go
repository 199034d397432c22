package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vpndrop/files-api/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCode = "12345678901234"

func newTestAPI(t *testing.T) *API {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	uploadsDir := filepath.Join(dataDir, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0o755))

	hash, err := security.New().GenerateFromCode(testCode)
	require.NoError(t, err)

	viper.Set("admin.code_hash", hash)
	viper.Set("storage.registry_file", filepath.Join(dataDir, "files.json"))
	viper.Set("storage.uploads_dir", uploadsDir)
	viper.Set("upload.max_size", int64(50<<20))
	viper.Set("app.log_level", "error")

	a, err := NewRouter()
	require.NoError(t, err)

	return a
}

func do(a *API, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, a *API, code string) (int, string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"code": code})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := do(a, req)

	var resp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	return w.Code, resp.Token
}

func uploadFile(t *testing.T, a *API, token, filename string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	fmt.Fprint(fw, "client\nremote vpn.example.org 1194\n")

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return do(a, req)
}

func listFiles(t *testing.T, a *API) (int, []map[string]any, string) {
	t.Helper()

	w := do(a, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	var resp struct {
		Files []map[string]any `json:"files"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	return w.Code, resp.Files, w.Body.String()
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t)

	code, token := login(t, a, "too-short")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, token)

	code, token = login(t, a, "00000000000000")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Empty(t, token)

	code, token = login(t, a, testCode)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, token)
}

func TestNewLoginReplacesOldSession(t *testing.T) {
	a := newTestAPI(t)

	_, first := login(t, a, testCode)
	_, second := login(t, a, testCode)
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+first)
	assert.Equal(t, http.StatusUnauthorized, do(a, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+second)
	assert.Equal(t, http.StatusOK, do(a, req).Code)
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	a := newTestAPI(t)

	reqs := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/admin/files", nil),
		httptest.NewRequest(http.MethodPut, "/api/admin/files/some-id", bytes.NewReader([]byte("{}"))),
		httptest.NewRequest(http.MethodDelete, "/api/admin/files/some-id", nil),
		httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil),
	}

	for _, req := range reqs {
		assert.Equal(t, http.StatusUnauthorized, do(a, req).Code, "%s %s", req.Method, req.URL.Path)
	}
}

func TestUploadRejectsBadExtensionBeforeStoring(t *testing.T) {
	a := newTestAPI(t)

	_, token := login(t, a, testCode)

	w := uploadFile(t, a, token, "evil.exe", map[string]string{
		"name":       "Net1",
		"network":    "Home",
		"expiryDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := os.ReadDir(viper.GetString("storage.uploads_dir"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no byte may persist for a rejected extension")
}

func TestUploadDiscardsBlobOnValidationFailure(t *testing.T) {
	a := newTestAPI(t)

	_, token := login(t, a, testCode)

	// Valid file, missing network -> registry rejects after staging
	w := uploadFile(t, a, token, "a.ovpn", map[string]string{
		"name":       "Net1",
		"expiryDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := os.ReadDir(viper.GetString("storage.uploads_dir"))
	require.NoError(t, err)
	assert.Empty(t, entries, "staged blob must be discarded when metadata validation fails")
}

func TestUploadRejectsPastExpiry(t *testing.T) {
	a := newTestAPI(t)

	_, token := login(t, a, testCode)

	w := uploadFile(t, a, token, "a.ovpn", map[string]string{
		"name":       "Net1",
		"network":    "Home",
		"expiryDate": time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadUnknownID(t *testing.T) {
	a := newTestAPI(t)

	w := do(a, httptest.NewRequest(http.MethodGet, "/api/download/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadListDownloadLifecycle(t *testing.T) {
	a := newTestAPI(t)

	_, token := login(t, a, testCode)
	require.NotEmpty(t, token)

	w := uploadFile(t, a, token, "a.ovpn", map[string]string{
		"name":        "Net1",
		"network":     "Home",
		"description": "office access",
		"expiryDate":  time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		File struct {
			ID             string `json:"id"`
			Size           string `json:"size"`
			StoredFilename string `json:"storedFilename"`
		} `json:"file"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.File.ID)

	// Listing shows the file, not expired, and never leaks the stored name
	code, files, rawBody := listFiles(t, a)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, files, 1)
	assert.Equal(t, "a.ovpn", files[0]["filename"])
	assert.Equal(t, "Net1", files[0]["name"])
	assert.Equal(t, false, files[0]["isExpired"])
	assert.NotContains(t, rawBody, "storedFilename")
	assert.NotContains(t, rawBody, created.File.StoredFilename)

	// Download serves the bytes under the original name and counts
	dl := do(a, httptest.NewRequest(http.MethodGet, "/api/download/"+created.File.ID, nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "a.ovpn")
	assert.Contains(t, dl.Body.String(), "remote vpn.example.org")

	do(a, httptest.NewRequest(http.MethodGet, "/api/download/"+created.File.ID, nil))

	statsReq := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	statsReq.Header.Set("Authorization", "Bearer "+token)
	sw := do(a, statsReq)
	require.Equal(t, http.StatusOK, sw.Code)

	var stats struct {
		Stats struct {
			TotalFiles     int `json:"totalFiles"`
			ActiveFiles    int `json:"activeFiles"`
			ExpiredFiles   int `json:"expiredFiles"`
			TotalDownloads int `json:"totalDownloads"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Stats.TotalFiles)
	assert.Equal(t, 1, stats.Stats.ActiveFiles)
	assert.Equal(t, 0, stats.Stats.ExpiredFiles)
	assert.Equal(t, 2, stats.Stats.TotalDownloads)

	// Expire the file via update
	body, _ := json.Marshal(map[string]string{
		"name":       "Net1",
		"network":    "Home",
		"expiryDate": time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
	})
	upd := httptest.NewRequest(http.MethodPut, "/api/admin/files/"+created.File.ID, bytes.NewReader(body))
	upd.Header.Set("Content-Type", "application/json")
	upd.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, do(a, upd).Code)

	code, files, _ = listFiles(t, a)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, files, 1)
	assert.Equal(t, true, files[0]["isExpired"])

	// Expired files refuse to download even though the bytes exist
	dl = do(a, httptest.NewRequest(http.MethodGet, "/api/download/"+created.File.ID, nil))
	assert.Equal(t, http.StatusForbidden, dl.Code)

	// Delete removes the record and the blob
	del := httptest.NewRequest(http.MethodDelete, "/api/admin/files/"+created.File.ID, nil)
	del.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, do(a, del).Code)

	dl = do(a, httptest.NewRequest(http.MethodGet, "/api/download/"+created.File.ID, nil))
	assert.Equal(t, http.StatusNotFound, dl.Code)

	entries, err := os.ReadDir(viper.GetString("storage.uploads_dir"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateUnknownFile(t *testing.T) {
	a := newTestAPI(t)

	_, token := login(t, a, testCode)

	body, _ := json.Marshal(map[string]string{
		"name":       "Net1",
		"network":    "Home",
		"expiryDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/files/nope", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	assert.Equal(t, http.StatusNotFound, do(a, req).Code)
}

func TestDownloadMissingBlob(t *testing.T) {
	a := newTestAPI(t)

	_, token := login(t, a, testCode)

	w := uploadFile(t, a, token, "a.ovpn", map[string]string{
		"name":       "Net1",
		"network":    "Home",
		"expiryDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		File struct {
			ID             string `json:"id"`
			StoredFilename string `json:"storedFilename"`
		} `json:"file"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Simulate a registry/disk inconsistency
	require.NoError(t, os.Remove(filepath.Join(viper.GetString("storage.uploads_dir"), created.File.StoredFilename)))

	dl := do(a, httptest.NewRequest(http.MethodGet, "/api/download/"+created.File.ID, nil))
	assert.Equal(t, http.StatusNotFound, dl.Code)
}

func TestHeartbeat(t *testing.T) {
	a := newTestAPI(t)

	w := do(a, httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
