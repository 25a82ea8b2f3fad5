package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/claimswift/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Check(t *testing.T) {
	db, err := persistence.Connect(context.Background(), &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	}, nil)
	require.NoError(t, err)
	engine := newTestEngine(NewHealthHandler(db))

	w, env := doRequest(t, engine, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status   string         `json:"status"`
		Database string         `json:"database"`
		Pool     map[string]int `json:"pool"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "UP", body.Status)
	assert.Equal(t, "UP", body.Database)
	assert.Equal(t, 1, body.Pool["open"], "sqlite runs on a single connection")
	assert.Contains(t, body.Pool, "in_use")

	require.NoError(t, db.Close())

	w, env = doRequest(t, engine, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ERR_SERVICE_UNAVAILABLE", env.Error.Code)
}
