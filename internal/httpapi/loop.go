package httpapi

import (
	"log"
	"time"

	"github.com/blackswan-colony/simcore/internal/replay"
	"github.com/blackswan-colony/simcore/internal/store"
	"github.com/blackswan-colony/simcore/internal/tick"
)

// DriveTicks advances the server's session at the rate its clock
// dictates, holding the same mutex every HTTP handler reads and writes
// through so a tick's mutations never interleave with a concurrent
// request. maxTicks of 0 runs until the session leaves SessionRunning.
func (s *Server) DriveTicks(repo *store.Repository, scenarioID string, maxTicks int64) {
	for {
		s.mu.RLock()
		rate := s.session.Clock.TicksPerRealSecond()
		current := s.session.CurrentTick
		s.mu.RUnlock()

		if maxTicks > 0 && current >= maxTicks {
			return
		}
		if rate == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if rate > 0 {
			time.Sleep(time.Duration(float64(time.Second) / rate))
		}

		s.mu.Lock()
		results := s.session.Tick(0)
		if err := replay.AppendTickLog(repo, s.sessionID, s.session, results); err != nil {
			log.Printf("httpapi: failed to append tick log at tick %d: %v", s.session.CurrentTick, err)
		}
		if s.session.Autosave.ShouldSave(s.session.CurrentTick) {
			if err := replay.Autosave(repo, s.session, s.sessionID, scenarioID); err != nil {
				log.Printf("httpapi: autosave failed at tick %d: %v", s.session.CurrentTick, err)
			}
		}
		state := s.session.State
		s.mu.Unlock()

		if state != tick.SessionRunning {
			return
		}
	}
}
