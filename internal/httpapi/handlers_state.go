package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blackswan-colony/simcore/internal/tick"
	"github.com/blackswan-colony/simcore/pkg/models"
)

// stateSummary is the immutable read-only snapshot served by
// state/summary: current tick, session phase and the KPI aggregates
// victory/loss evaluation itself reads.
type stateSummary struct {
	CurrentTick int64             `json:"current_tick"`
	State       string            `json:"state"`
	Scale       string            `json:"time_scale"`
	Paused      bool              `json:"paused"`
	FastForward bool              `json:"fast_forward"`
	Workers     int               `json:"workers"`
	Workyards   int               `json:"workyards"`
	Jobs        int               `json:"jobs"`
	Corruption  float64           `json:"corruption_global"`
	KPIs        map[string]float64 `json:"kpis"`
}

func (s *Server) getStateSummary(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.session

	kpis := map[string]float64{}
	for _, name := range []string{"throughput", "deadline_misses", "corruption_field"} {
		if v, ok := sess.MetricValue(name, 0); ok {
			kpis[name] = v
		}
	}

	c.JSON(http.StatusOK, stateSummary{
		CurrentTick: sess.CurrentTick,
		State:       string(sess.State),
		Scale:       string(sess.Clock.Scale),
		Paused:      sess.Clock.Paused,
		FastForward: sess.Clock.FastForward,
		Workers:     len(sess.Store.Workers),
		Workyards:   len(sess.Store.Workyards),
		Jobs:        len(sess.Store.Jobs),
		Corruption:  sess.Store.Corruption.Global,
		KPIs:        kpis,
	})
}

func (s *Server) postClockScale(c *gin.Context) {
	var req struct {
		Scale string `json:"scale" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tick.Intent{Kind: tick.IntentSetTimeScale, TimeScale: tick.TimeScale(req.Scale)})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postJob(c *gin.Context) {
	var req struct {
		PipelineID string `json:"pipeline_id" binding:"required"`
		PayloadSz  int64  `json:"payload_sz"`
		DeadlineMs int64  `json:"deadline_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tick.Intent{
		Kind:       tick.IntentSubmitJob,
		PipelineID: req.PipelineID,
		PayloadSz:  req.PayloadSz,
		DeadlineMs: req.DeadlineMs,
	})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postSchedulerPolicy(c *gin.Context) {
	var req struct {
		Policy string `json:"policy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tick.Intent{Kind: tick.IntentSwitchScheduler, Policy: parsePolicy(req.Policy)})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postIOSim(c *gin.Context) {
	yardID, err := strconv.ParseUint(c.Param("yard"), 10, 64)
	if err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	var req struct {
		BWUtil float64 `json:"bw_util"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tick.Intent{Kind: tick.IntentSetIOTraffic, IOYard: models.WorkyardID(yardID), BWUtil: req.BWUtil})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postWorkerReimage(c *gin.Context) {
	workerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tick.Intent{Kind: tick.IntentReimageWorker, ReimageWorker: models.WorkerID(workerID)})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}
