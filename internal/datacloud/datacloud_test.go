package datacloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryClientReadData(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`{"data": [], "metadata": {}, "done": true}`))
	}))
	defer srv.Close()

	client := NewQueryClient(StaticTokenSource{AccessToken: "tok-1"}, srv.URL, 0)

	payload, err := client.ReadData(context.Background(), "SELECT 1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.JSONEq(t, `{"sql": "SELECT 1"}`, gotBody)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(payload, &obj))
	assert.Equal(t, true, obj["done"])
}

func TestQueryClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewQueryClient(StaticTokenSource{AccessToken: "tok-1"}, srv.URL, 0)

	_, err := client.ReadData(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestQueryClientMissingToken(t *testing.T) {
	client := NewQueryClient(StaticTokenSource{}, "http://unused", 0)
	_, err := client.ReadData(context.Background(), "SELECT 1")
	assert.Error(t, err)
}

func TestIngestionClientSuccess(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewIngestionClient(StaticTokenSource{AccessToken: "tok-1"}, srv.URL, "conn-1", "attrs-dlo", 0)

	status, errMsg := client.IngestRows(context.Background(), []map[string]any{
		{"id": "row-1", "value": "window"},
	})

	assert.Equal(t, http.StatusCreated, status)
	assert.Empty(t, errMsg)
	assert.Equal(t, "/api/v1/ingest/sources/conn-1/attrs-dlo", gotPath)
	assert.JSONEq(t, `{"data": [{"id": "row-1", "value": "window"}]}`, gotBody)
}

func TestIngestionClientErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "schema mismatch"}`))
	}))
	defer srv.Close()

	client := NewIngestionClient(StaticTokenSource{AccessToken: "tok-1"}, srv.URL, "conn-1", "attrs-dlo", 0)

	status, errMsg := client.IngestRows(context.Background(), []map[string]any{{"id": "x"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "schema mismatch", errMsg)
}

func TestIngestionClientNoResponse(t *testing.T) {
	client := NewIngestionClient(StaticTokenSource{AccessToken: "tok-1"}, "http://127.0.0.1:1", "conn-1", "attrs-dlo", 0)

	status, errMsg := client.IngestRows(context.Background(), []map[string]any{{"id": "x"}})
	assert.Equal(t, 0, status)
	assert.NotEmpty(t, errMsg)
}
