package httpapi

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/blackswan-colony/simcore/internal/tick"
	"github.com/blackswan-colony/simcore/pkg/modcap"
)

type modView struct {
	ModID        string   `json:"mod_id"`
	Capabilities []string `json:"capabilities"`
	FuelBudget   int64    `json:"fuel_budget"`
}

func (s *Server) getModsList(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grants := s.modGate.Grants()
	out := make([]modView, 0, len(grants))
	for _, g := range grants {
		caps := make([]string, 0, len(g.Capabilities))
		for capName := range g.Capabilities {
			caps = append(caps, string(capName))
		}
		sort.Strings(caps)
		out = append(out, modView{ModID: g.ModID, Capabilities: caps, FuelBudget: g.FuelBudget})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModID < out[j].ModID })
	c.JSON(http.StatusOK, out)
}

// postModsReload re-registers a mod's grant in place, the way a host
// would pick up an edited capability manifest without restarting the
// session.
func (s *Server) postModsReload(c *gin.Context) {
	var req modGrantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	grant, err := req.toGrant()
	if err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.modGate.Register(grant)
	c.JSON(http.StatusOK, gin.H{"mod_id": grant.ModID})
}

func (s *Server) postModsEnable(c *gin.Context) {
	var req modGrantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !req.Enable {
		s.modGate.Deregister(req.ModID)
		c.JSON(http.StatusOK, gin.H{"mod_id": req.ModID, "enabled": false})
		return
	}
	grant, err := req.toGrant()
	if err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.modGate.Register(grant)
	c.JSON(http.StatusOK, gin.H{"mod_id": grant.ModID, "enabled": true})
}

// postModsDryrun checks whether a mod holding the claimed grant would
// be allowed to invoke one capability, without spending any fuel or
// enqueuing any intent -- a mod author's "would this call succeed"
// probe.
func (s *Server) postModsDryrun(c *gin.Context) {
	var req struct {
		ModID      string            `json:"mod_id" binding:"required"`
		Capability modcap.Capability `json:"capability" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.modGate.Begin(req.ModID, req.Capability); err != nil {
		c.JSON(http.StatusOK, gin.H{"allowed": false, "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed": true})
}

// getModsDocs returns the closed capability surface a mod manifest may
// request -- static, but served from the package's own source of truth
// rather than duplicated into a client-side constant.
func (s *Server) getModsDocs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"capabilities": []modcap.Capability{
			modcap.CapReadKPI,
			modcap.CapSubmitJob,
			modcap.CapMutatePipeline,
			modcap.CapRegisterEvent,
			modcap.CapRegisterTech,
			modcap.CapRegisterRitual,
		},
		"intent_kind_for_mutation": tick.IntentModMutation,
	})
}

type modGrantReq struct {
	ModID        string              `json:"mod_id" binding:"required"`
	Capabilities []modcap.Capability `json:"capabilities"`
	FuelBudget   int64               `json:"fuel_budget"`
	MemoryCeil   int64               `json:"memory_ceil"`
	Enable       bool                `json:"enable"`
}

func (r modGrantReq) toGrant() (*modcap.Grant, error) {
	return modcap.NewGrant(r.ModID, r.Capabilities, r.FuelBudget, r.MemoryCeil)
}
