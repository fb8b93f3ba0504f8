package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/umts-radio-core/internal/config"
	"github.com/your-org/umts-radio-core/internal/mac"
	"github.com/your-org/umts-radio-core/internal/ue"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *ue.Table) {
	t.Helper()
	ues := ue.NewTable(1)
	scheduler := mac.NewScheduler(10*time.Millisecond, func(int, []byte) {}, zap.NewNop())
	cfg := config.Default()
	return NewServer(cfg, ues, scheduler, zap.NewNop()), ues
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListUEsEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ues/", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["count"])
}

func TestGetUEByURNTI(t *testing.T) {
	s, ues := newTestServer(t)
	u, _ := ues.FindOrCreateByExternalID("imsi:001010123456789", time.Now())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/ues/%d", u.URNTI), nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body ueSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, u.URNTI, body.URNTI)
	assert.Equal(t, "IdleMode", body.State)
}

func TestGetUEUnknownReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ues/999", nil)
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMACStatsReportsStateCounts(t *testing.T) {
	s, ues := newTestServer(t)
	ues.FindOrCreateByExternalID("imsi:1", time.Now())
	ues.FindOrCreateByExternalID("imsi:2", time.Now())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mac/stats", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["ue_count"])
}
