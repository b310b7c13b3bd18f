package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackswan-colony/simcore/pkg/models"
)

func (s *Server) getMetricsIO(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bw, _ := s.session.MetricValue("throughput", 0)
	c.JSON(http.StatusOK, gin.H{"throughput": bw})
}

func (s *Server) getMetricsFaults(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	misses, _ := s.session.MetricValue("deadline_misses", 0)
	c.JSON(http.StatusOK, gin.H{"deadline_misses": misses})
}

func (s *Server) getMetricsGPU(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open, launched, transferring int
	for _, b := range s.session.Store.GpuBatches {
		switch b.State.Phase {
		case models.BatchOpen:
			open++
		case models.BatchLaunched:
			launched++
		case models.BatchTransferring:
			transferring++
		}
	}
	c.JSON(http.StatusOK, gin.H{"open": open, "launched": launched, "transferring": transferring})
}

func (s *Server) getMetricsSummary(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.session
	throughput, _ := sess.MetricValue("throughput", 0)
	misses, _ := sess.MetricValue("deadline_misses", 0)
	corruption, _ := sess.MetricValue("corruption_field", 0)
	c.JSON(http.StatusOK, gin.H{
		"current_tick":     sess.CurrentTick,
		"throughput":       throughput,
		"deadline_misses":  misses,
		"corruption_field": corruption,
	})
}

func (s *Server) postCorruptionTunables(c *gin.Context) {
	var patch map[string]float64
	if err := c.ShouldBindJSON(&patch); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tickIntentSetCorruptionConfig(patch))
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postGPUTunables(c *gin.Context) {
	var req struct {
		Patch map[string]float64 `json:"patch"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tickIntentSetGPUConfig(req.Patch, "", nil))
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postGPUFlags(c *gin.Context) {
	var req struct {
		OpKind                string  `json:"op_kind" binding:"required"`
		BaseKernelTicks       int64   `json:"base_kernel_ticks"`
		MixedPrecisionSpeedup float64 `json:"mixed_precision_speedup"`
		WarmupTicks           int64   `json:"warmup_ticks"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tickIntentSetGPUConfig(nil, req.OpKind, &kernelProfileReq{
		BaseKernelTicks:       req.BaseKernelTicks,
		MixedPrecisionSpeedup: req.MixedPrecisionSpeedup,
		WarmupTicks:           req.WarmupTicks,
	}))
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}
