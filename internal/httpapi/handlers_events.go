package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackswan-colony/simcore/internal/tick"
	"github.com/blackswan-colony/simcore/pkg/models"
)

type eventView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	State  string `json:"state"`
	Weight float64 `json:"weight"`
}

func (s *Server) getEvents(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.session.Store.EventsByID()
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, eventView{ID: e.ID, Name: e.Name, State: string(e.State), Weight: e.Weight})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) postEventFire(c *gin.Context) {
	id := c.Param("id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tick.Intent{Kind: tick.IntentForceFireEvent, EventID: id})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postResearchUnlock(c *gin.Context) {
	techID := c.Param("id")
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.techGate.CanStart(s.session.Store.Research, techID) {
		errJSON(c, http.StatusConflict, errUnmetPrereqs(techID))
		return
	}
	ticks := int64(0)
	for _, t := range s.scenario.Research {
		if t.ID == techID {
			ticks = t.Ticks
			break
		}
	}
	in := s.session.Queue.Enqueue(tick.Intent{Kind: tick.IntentUnlockResearch, TechID: techID, TechTicks: ticks})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

func (s *Server) postRitualStart(c *gin.Context) {
	ritualID := c.Param("id")
	var req struct {
		Yard       uint64 `json:"yard" binding:"required"`
		Parts      int    `json:"parts" binding:"required"`
		TotalTicks int64  `json:"total_ticks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := s.session.Queue.Enqueue(tick.Intent{
		Kind:             tick.IntentStartRitual,
		RitualID:         ritualID,
		RitualYard:       models.WorkyardID(req.Yard),
		RitualParts:      req.Parts,
		RitualTotalTicks: req.TotalTicks,
	})
	c.JSON(http.StatusAccepted, gin.H{"sequence": in.Sequence})
}

type prereqError struct{ techID string }

func (e prereqError) Error() string { return "research: " + e.techID + " has unmet prerequisites" }

func errUnmetPrereqs(techID string) error { return prereqError{techID: techID} }
