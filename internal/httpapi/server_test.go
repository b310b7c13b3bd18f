package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackswan-colony/simcore/internal/config"
	"github.com/blackswan-colony/simcore/internal/tick"
	"github.com/blackswan-colony/simcore/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sess := tick.NewSession(1, 1, tick.Config{
		TickMs: 100, BaseBandwidthCap: 10, KPICapacities: []int64{64},
		OpCost: func(models.OpKind, int64) float64 { return 1 },
	})
	yard := models.NewWorkyard(1, models.ClassCPU, 2, 100, 100)
	sess.Store.Workyards[yard.ID] = yard
	sess.Store.Workers[1] = models.NewWorker(1, models.ClassCPU, yard.ID, nil)
	sess.Store.Pipelines["p1"] = &models.Pipeline{
		ID: "p1", Ops: []models.OpKind{"compute"}, QoS: models.QoSBalanced, PendingCap: 10,
	}

	def := &config.ScenarioDefinition{
		ID: "test-scenario",
		Research: []config.TechSpec{
			{ID: "tech-a", Ticks: 5},
			{ID: "tech-b", Requires: []string{"tech-a"}, Ticks: 5},
		},
	}
	return NewServer(sess, def, "sess-1", nil)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStateSummaryReturnsCounts(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodGet, "/api/v1/state/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body stateSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Workers)
	assert.Equal(t, 1, body.Workyards)
	assert.Equal(t, "running", body.State)
}

func TestPostJobEnqueuesSubmitJobIntent(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/job", map[string]any{
		"pipeline_id": "p1", "payload_sz": 1024, "deadline_ms": 500,
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	drained := s.session.Queue.Drain(0)
	require.Len(t, drained, 1)
	assert.Equal(t, tick.IntentSubmitJob, drained[0].Kind)
	assert.Equal(t, "p1", drained[0].PipelineID)
}

func TestResearchUnlockRejectsUnmetPrereqs(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/research/unlock/tech-b", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, s.session.Queue.Drain(0))
}

func TestResearchUnlockAcceptsWhenPrereqsMet(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/research/unlock/tech-a", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	drained := s.session.Queue.Drain(0)
	require.Len(t, drained, 1)
	assert.Equal(t, tick.IntentUnlockResearch, drained[0].Kind)
	assert.Equal(t, int64(5), drained[0].TechTicks)
}

func TestSessionPauseAndResumeToggleClock(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/session/pause", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.session.Clock.Paused)

	w = doJSON(t, s.Router(), http.MethodPost, "/api/v1/session/resume", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.session.Clock.Paused)
}

func TestSaveManualWithoutRepoReturnsUnavailable(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/save/manual", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestModsEnableThenListRoundTrips(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/mods/enable", map[string]any{
		"mod_id": "m1", "enable": true, "capabilities": []string{"read_kpi"}, "fuel_budget": 100,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s.Router(), http.MethodGet, "/api/v1/mods/list", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mods []modView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mods))
	require.Len(t, mods, 1)
	assert.Equal(t, "m1", mods[0].ModID)
}

func TestModsDryrunDeniedForUnregisteredMod(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/mods/dryrun", map[string]any{
		"mod_id": "ghost", "capability": "read_kpi",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["allowed"])
}
