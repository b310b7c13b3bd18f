package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackswan-colony/simcore/internal/config"
	"github.com/blackswan-colony/simcore/internal/replay"
	"github.com/blackswan-colony/simcore/internal/store"
)

func (s *Server) postSessionStart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Clock.Paused = false
	if s.repo != nil {
		_ = s.repo.CreateSession(&store.SessionRecord{
			ID:          s.sessionID,
			ScenarioID:  s.scenario.ID,
			SessionSeed: s.session.RNG.RootSeed(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"state": string(s.session.State)})
}

func (s *Server) postSessionPause(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Clock.Paused = true
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) postSessionResume(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Clock.Paused = false
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (s *Server) postSessionFfwd(c *gin.Context) {
	var req struct {
		Enable bool `json:"enable"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Clock.FastForward = req.Enable
	c.JSON(http.StatusOK, gin.H{"fast_forward": req.Enable})
}

func (s *Server) getSessionStatus(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{
		"session_id":   s.sessionID,
		"current_tick": s.session.CurrentTick,
		"state":        string(s.session.State),
		"paused":       s.session.Clock.Paused,
		"fast_forward": s.session.Clock.FastForward,
		"scale":        string(s.session.Clock.Scale),
		"replaying":    s.replaying,
	})
}

func (s *Server) postSessionAutosave(c *gin.Context) {
	var req struct {
		IntervalTicks int64 `json:"interval_ticks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Autosave.IntervalTicks = req.IntervalTicks
	c.JSON(http.StatusOK, gin.H{"interval_ticks": req.IntervalTicks})
}

// postSaveManual forces an out-of-band snapshot, independent of the
// autosave interval, the way an operator's "save now" button would.
func (s *Server) postSaveManual(c *gin.Context) {
	if s.repo == nil {
		errJSON(c, http.StatusServiceUnavailable, errNoRepo())
		return
	}
	s.mu.RLock()
	tickAt := s.session.CurrentTick
	err := replay.Autosave(s.repo, s.session, s.sessionID, s.scenario.ID)
	s.mu.RUnlock()

	if err != nil {
		errJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_tick": tickAt})
}

// postLoadManual replaces the running session with the latest persisted
// snapshot, rebuilding entity store and RNG stream counters so the next
// Tick resumes the identical draw sequence the original run would have
// produced.
func (s *Server) postLoadManual(c *gin.Context) {
	if s.repo == nil {
		errJSON(c, http.StatusServiceUnavailable, errNoRepo())
		return
	}
	rec, err := s.repo.LatestSnapshot(s.sessionID)
	if err != nil {
		errJSON(c, http.StatusNotFound, err)
		return
	}
	snap, err := store.Decode(rec.EncodedState)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := config.ConfigFromScenario(s.scenario)
	s.session = replay.FromSnapshot(snap, cfg)
	c.JSON(http.StatusOK, gin.H{"current_tick": s.session.CurrentTick})
}

// postReplayStart rebuilds a session from the latest persisted
// snapshot and re-applies every recorded intent from fromTick through
// toTick, the way a debug rewind or a desync investigation would drive
// it -- synchronously, since it is meant for operator tooling rather
// than the live tick loop.
func (s *Server) postReplayStart(c *gin.Context) {
	var req struct {
		FromTick int64 `json:"from_tick"`
		ToTick   int64 `json:"to_tick" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errJSON(c, http.StatusBadRequest, err)
		return
	}
	if s.repo == nil {
		errJSON(c, http.StatusServiceUnavailable, errNoRepo())
		return
	}

	rec, err := s.repo.LatestSnapshot(s.sessionID)
	if err != nil {
		errJSON(c, http.StatusNotFound, err)
		return
	}
	snap, err := store.Decode(rec.EncodedState)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err)
		return
	}

	entries, err := s.repo.TickLogRange(s.sessionID, req.FromTick, req.ToTick)
	if err != nil {
		errJSON(c, http.StatusInternalServerError, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaying = true
	defer func() { s.replaying = false }()

	cfg := config.ConfigFromScenario(s.scenario)
	replayed := replay.FromSnapshot(snap, cfg)
	replayed.Evaluator = s.session.Evaluator

	for _, entry := range entries {
		intents, err := s.repo.IntentsForTick(entry.ID)
		if err != nil {
			errJSON(c, http.StatusInternalServerError, err)
			return
		}
		var cutoff uint64
		for _, in := range intents {
			enqueued := replayed.Queue.Enqueue(replay.IntentFromRecord(in))
			if enqueued.Sequence > cutoff {
				cutoff = enqueued.Sequence
			}
		}
		replayed.Tick(cutoff)
	}

	s.session = replayed
	c.JSON(http.StatusOK, gin.H{"current_tick": replayed.CurrentTick, "ticks_replayed": len(entries)})
}

func (s *Server) postReplayStop(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaying = false
	c.JSON(http.StatusOK, gin.H{"replaying": false})
}

type noRepoError struct{}

func (noRepoError) Error() string { return "httpapi: no replay/save repository configured" }

func errNoRepo() error { return noRepoError{} }
