package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLogAPI(t *testing.T) {
	e, _ := newTestServer(t)

	id := mustCreateLog(t, e, map[string]interface{}{
		"project_id":        "proj-a",
		"provider":          "openai",
		"model":             "gpt-4o",
		"prompt_tokens":     100,
		"completion_tokens": 50,
		"total_tokens":      150,
		"duration":          1234,
		"status":            "success",
		"status_code":       200,
		"cost":              0.00075,
		"metadata":          map[string]interface{}{"user": "u1"},
	})

	rec := doJSON(e, http.MethodGet, "/api/logs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "proj-a", body["project_id"])
	assert.Equal(t, "gpt-4o", body["model"])
	assert.EqualValues(t, 150, body["total_tokens"])
}

func TestCreateLogValidation(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{
			name:    "缺少provider",
			payload: map[string]interface{}{"project_id": "proj-a", "model": "gpt-4o", "status": "success"},
		},
		{
			name:    "缺少project_id",
			payload: map[string]interface{}{"provider": "openai", "model": "gpt-4o", "status": "success"},
		},
		{
			name:    "status取值非法",
			payload: map[string]interface{}{"project_id": "proj-a", "provider": "openai", "model": "gpt-4o", "status": "pending"},
		},
		{
			name:    "duration为负",
			payload: map[string]interface{}{"project_id": "proj-a", "provider": "openai", "model": "gpt-4o", "status": "success", "duration": -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/logs", tt.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateLogDuplicate(t *testing.T) {
	e, _ := newTestServer(t)

	payload := map[string]interface{}{
		"id":         "log-001",
		"project_id": "proj-a",
		"provider":   "openai",
		"model":      "gpt-4o",
		"status":     "success",
	}
	mustCreateLog(t, e, payload)

	rec := doJSON(e, http.MethodPost, "/api/logs", payload)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestListLogsAPI(t *testing.T) {
	e, _ := newTestServer(t)

	for _, status := range []string{"success", "success", "error"} {
		mustCreateLog(t, e, map[string]interface{}{
			"project_id": "proj-a",
			"provider":   "openai",
			"model":      "gpt-4o",
			"status":     status,
		})
	}

	rec := doJSON(e, http.MethodGet, "/api/logs?project_id=proj-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 3, body["total"])
	assert.Len(t, body["logs"], 3)
	assert.EqualValues(t, 100, body["limit"])

	rec = doJSON(e, http.MethodGet, "/api/logs?project_id=proj-a&status=error", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.EqualValues(t, 1, body["total"])

	// 无结果时返回空数组而不是null
	rec = doJSON(e, http.MethodGet, "/api/logs?project_id=no-such-project", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.NotNil(t, body["logs"])
	assert.Len(t, body["logs"], 0)
}

func TestGetLogNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/logs/no-such-log", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsAPI(t *testing.T) {
	e, _ := newTestServer(t)

	mustCreateLog(t, e, map[string]interface{}{
		"project_id": "proj-a", "provider": "openai", "model": "gpt-4o",
		"status": "success", "total_tokens": 100, "cost": 0.01,
	})
	mustCreateLog(t, e, map[string]interface{}{
		"project_id": "proj-a", "provider": "gemini", "model": "gemini-2.0-flash",
		"status": "error", "total_tokens": 50, "cost": 0,
	})

	rec := doJSON(e, http.MethodGet, "/api/metrics/summary?project_id=proj-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["total_calls"])
	assert.EqualValues(t, 1, body["successful_calls"])
	assert.EqualValues(t, 1, body["failed_calls"])
	assert.EqualValues(t, 150, body["total_tokens"])

	rec = doJSON(e, http.MethodGet, "/api/metrics/by-provider?project_id=proj-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.EqualValues(t, 2, body["count"])

	rec = doJSON(e, http.MethodGet, "/api/metrics/timeseries?project_id=proj-a&interval=day", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.EqualValues(t, 1, body["count"])

	rec = doJSON(e, http.MethodGet, "/api/metrics/timeseries?interval=week", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
