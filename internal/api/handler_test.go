package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "whereabouts/internal/db"
	"whereabouts/internal/db/repository"
	"whereabouts/internal/middleware"
	"whereabouts/internal/service"
)

func setupAPI(t *testing.T) http.Handler {
	t.Helper()
	db, _ := internaldb.OpenTestSQLite(t)
	shares := repository.NewShareGraphRepo(db)
	locations := repository.NewLocationRepo(db)

	resolver := service.NewVisibilityService(shares, locations)
	hub := service.NewHub(resolver, slog.Default())
	sharing := service.NewSharingService(shares, locations, hub)
	ingest := service.NewIngestService(shares, locations, hub)

	h := NewHandler(sharing, ingest, resolver, hub, slog.Default())
	return NewRouter(h, RouterConfig{})
}

func doRequest(t *testing.T, handler http.Handler, method, path, identity string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if identity != "" {
		req.Header.Set(middleware.DefaultIdentityHeader, identity)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func putLocation(t *testing.T, handler http.Handler, identity string, lat, lon float64, ts int64) {
	t.Helper()
	rec := doRequest(t, handler, http.MethodPut, "/v1/location", identity, map[string]interface{}{
		"latitude": lat, "longitude": lon, "timestamp": ts,
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func visibleOwners(t *testing.T, handler http.Handler, identity string) []string {
	t.Helper()
	rec := doRequest(t, handler, http.MethodGet, "/v1/locations", identity, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Locations []struct {
			Name string `json:"name"`
		} `json:"locations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	names := []string{}
	for _, l := range resp.Locations {
		names = append(names, l.Name)
	}
	return names
}

func TestAPI_Healthz_NoIdentityRequired(t *testing.T) {
	handler := setupAPI(t)

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_MissingIdentity(t *testing.T) {
	handler := setupAPI(t)

	rec := doRequest(t, handler, http.MethodGet, "/v1/locations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_PutLocation_AndListOwn(t *testing.T) {
	handler := setupAPI(t)

	putLocation(t, handler, "alice", 52.52, 13.40, 1000)
	assert.Equal(t, []string{"alice"}, visibleOwners(t, handler, "alice"))
}

func TestAPI_PutLocation_InvalidCoordinates(t *testing.T) {
	handler := setupAPI(t)

	rec := doRequest(t, handler, http.MethodPut, "/v1/location", "alice", map[string]interface{}{
		"latitude": 91.0, "longitude": 0.5, "timestamp": 1000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ShareLifecycle(t *testing.T) {
	handler := setupAPI(t)

	putLocation(t, handler, "alice", 52.52, 13.40, 1000)
	putLocation(t, handler, "bob", 48.85, 2.35, 1000)

	assert.Equal(t, []string{"bob"}, visibleOwners(t, handler, "bob"))

	rec := doRequest(t, handler, http.MethodPut, "/v1/shares/bob", "alice", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	assert.Equal(t, []string{"alice", "bob"}, visibleOwners(t, handler, "bob"))
	assert.Equal(t, []string{"alice"}, visibleOwners(t, handler, "alice"))

	rec = doRequest(t, handler, http.MethodDelete, "/v1/shares/bob", "alice", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []string{"bob"}, visibleOwners(t, handler, "bob"))
}

func TestAPI_SelfShareRejected(t *testing.T) {
	handler := setupAPI(t)

	rec := doRequest(t, handler, http.MethodPut, "/v1/shares/alice", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetShares(t *testing.T) {
	handler := setupAPI(t)

	rec := doRequest(t, handler, http.MethodPut, "/v1/shares/bob", "alice", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/v1/shares", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp shareEntryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.Owner)
	assert.Equal(t, []string{"bob"}, resp.SharedWith)
	assert.True(t, resp.IsSharing)
}

func TestAPI_DisableSharing(t *testing.T) {
	handler := setupAPI(t)

	putLocation(t, handler, "alice", 52.52, 13.40, 1000)

	rec := doRequest(t, handler, http.MethodPut, "/v1/sharing", "alice", map[string]interface{}{
		"enabled": false,
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	assert.Empty(t, visibleOwners(t, handler, "alice"))
}

func TestAPI_PutSharing_EnabledRequired(t *testing.T) {
	handler := setupAPI(t)

	rec := doRequest(t, handler, http.MethodPut, "/v1/sharing", "alice", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_WatchStreamsInitialSnapshot(t *testing.T) {
	handler := setupAPI(t)

	putLocation(t, handler, "alice", 52.52, 13.40, 1000)

	server := httptest.NewServer(handler)
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/v1/locations/watch", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.DefaultIdentityHeader, "alice")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	deadline := time.Now().Add(5 * time.Second)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			var payload struct {
				Locations []struct {
					Name string `json:"name"`
				} `json:"locations"`
			}
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload))
			require.Len(t, payload.Locations, 1)
			assert.Equal(t, "alice", payload.Locations[0].Name)
			return
		}
		if time.Now().After(deadline) {
			break
		}
	}
	t.Fatalf("no data event received: %v", scanner.Err())
}
